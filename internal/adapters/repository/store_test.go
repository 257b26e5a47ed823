package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/internal/domain/report"
)

func newJob(id string) model.Job {
	return model.Job{
		ID:        id,
		SessionID: "session-" + id,
		File:      model.CandidateFile{Name: "cv.pdf", Size: 2048, MIMEType: "application/pdf"},
		State:     model.JobRunning,
	}
}

type storeFactory func(t *testing.T) (Store, func())

func memoryFactory(t *testing.T) (Store, func()) {
	s := NewMemoryStore(context.Background())
	return s, func() { _ = s.Close() }
}

func redisFactory(t *testing.T) (Store, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, WithTTL(time.Minute))
	return s, func() {
		_ = s.Close()
		mr.Close()
	}
}

func TestStores(t *testing.T) {
	factories := map[string]storeFactory{
		"memory": memoryFactory,
		"redis":  redisFactory,
	}
	for name, factory := range factories {
		testStoreContract(t, name, factory)
	}
}

func testStoreContract(t *testing.T, name string, factory storeFactory) {
	Convey(fmt.Sprintf("Given an empty %s store", name), t, func() {
		ctx := context.Background()
		store, cleanup := factory(t)
		defer cleanup()

		Convey("Then unknown jobs should not be found", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.UpdateProgress(ctx, "missing", 10), ErrNotFound), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 0)
		})

		Convey("When a job is created", func() {
			So(store.Create(ctx, newJob("j1")), ShouldBeNil)

			Convey("Then it should be readable with its session", func() {
				job, err := store.Get(ctx, "j1")
				So(err, ShouldBeNil)
				So(job.State, ShouldEqual, model.JobRunning)
				So(job.SessionID, ShouldEqual, "session-j1")
				So(job.File.Name, ShouldEqual, "cv.pdf")
				So(job.CreatedAt.IsZero(), ShouldBeFalse)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And creating it again should fail", func() {
				So(errors.Is(store.Create(ctx, newJob("j1")), ErrExists), ShouldBeTrue)
			})

			Convey("And progress should only move forward", func() {
				So(store.UpdateProgress(ctx, "j1", 30), ShouldBeNil)
				So(store.UpdateProgress(ctx, "j1", 20), ShouldBeNil)
				So(store.UpdateProgress(ctx, "j1", 250), ShouldBeNil)
				job, err := store.Get(ctx, "j1")
				So(err, ShouldBeNil)
				So(job.Progress, ShouldEqual, 100)
				So(job.State, ShouldEqual, model.JobRunning)
			})

			Convey("And completing it should store the report", func() {
				So(store.Complete(ctx, "j1", report.Sample()), ShouldBeNil)
				job, err := store.Get(ctx, "j1")
				So(err, ShouldBeNil)
				So(job.State, ShouldEqual, model.JobComplete)
				So(job.Progress, ShouldEqual, 100)
				So(job.Report, ShouldNotBeNil)
				So(job.Report.Overall, ShouldEqual, 78)

				Convey("And later writes should be rejected", func() {
					So(errors.Is(store.UpdateProgress(ctx, "j1", 100), ErrTerminal), ShouldBeTrue)
					So(errors.Is(store.Fail(ctx, "j1", "late"), ErrTerminal), ShouldBeTrue)
					So(errors.Is(store.Complete(ctx, "j1", report.Sample()), ErrTerminal), ShouldBeTrue)
				})
			})

			Convey("And failing it should keep its progress", func() {
				So(store.UpdateProgress(ctx, "j1", 40), ShouldBeNil)
				So(store.Fail(ctx, "j1", "processing timed out"), ShouldBeNil)
				job, err := store.Get(ctx, "j1")
				So(err, ShouldBeNil)
				So(job.State, ShouldEqual, model.JobFailed)
				So(job.Error, ShouldEqual, "processing timed out")
				So(job.Progress, ShouldEqual, 40)
				So(job.Report, ShouldBeNil)
			})

			Convey("And concurrent progress writes should converge on the maximum", func() {
				var wg sync.WaitGroup
				for p := 10; p <= 100; p += 10 {
					wg.Add(1)
					go func(p int) {
						defer wg.Done()
						for i := 0; i < 100; i++ {
							if store.UpdateProgress(ctx, "j1", p) == nil {
								return
							}
						}
					}(p)
				}
				wg.Wait()
				job, err := store.Get(ctx, "j1")
				So(err, ShouldBeNil)
				So(job.Progress, ShouldEqual, 100)
			})
		})
	})
}

func TestMemoryStoreSweep(t *testing.T) {
	Convey("Given a memory store with a short TTL", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx, WithTTL(time.Minute), WithSweepInterval(time.Hour))
		defer func() { _ = s.Close() }()

		clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return clock }

		So(s.Create(ctx, newJob("old")), ShouldBeNil)
		clock = clock.Add(2 * time.Minute)
		So(s.Create(ctx, newJob("fresh")), ShouldBeNil)

		Convey("When the sweeper runs", func() {
			s.sweep()

			Convey("Then only expired jobs should be dropped", func() {
				_, err := s.Get(ctx, "old")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				_, err = s.Get(ctx, "fresh")
				So(err, ShouldBeNil)
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a memory store", t, func() {
		s := NewMemoryStore(context.Background())

		Convey("Then Close should be idempotent", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}

func TestMemoryStoreIsolation(t *testing.T) {
	Convey("Given a completed job in a memory store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx)
		defer func() { _ = s.Close() }()
		So(s.Create(ctx, newJob("j")), ShouldBeNil)
		So(s.Complete(ctx, "j", report.Sample()), ShouldBeNil)

		Convey("When a caller mutates the returned report", func() {
			job, _ := s.Get(ctx, "j")
			job.Report.Overall = 1

			Convey("Then the stored report should be unchanged", func() {
				again, _ := s.Get(ctx, "j")
				So(again.Report.Overall, ShouldEqual, 78)
			})
		})
	})
}

func TestRedisStoreTTL(t *testing.T) {
	Convey("Given a redis store backed by miniredis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()

		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		s := NewRedisStore(client, WithTTL(time.Minute), WithKeyPrefix("test:job:"))
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		So(s.Create(ctx, newJob("j1")), ShouldBeNil)

		Convey("Then the key should carry the prefix and TTL", func() {
			So(mr.Exists("test:job:j1"), ShouldBeTrue)
			So(mr.TTL("test:job:j1"), ShouldEqual, time.Minute)
		})

		Convey("When the TTL elapses", func() {
			mr.FastForward(2 * time.Minute)

			Convey("Then the job should be gone", func() {
				_, err := s.Get(ctx, "j1")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the stored value is corrupt", func() {
			So(mr.Set("test:job:j1", "not-json"), ShouldBeNil)

			Convey("Then reads should report a decode error", func() {
				_, err := s.Get(ctx, "j1")
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "decode job")
			})
		})
	})

	Convey("Given an unreachable redis server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := NewRedisClient(ctx, RedisConfig{Addr: "127.0.0.1:1"})

		Convey("Then the client constructor should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
