package inflight_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	inflight "github.com/okian/resumescore/internal/domain/inflight"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGuard(t *testing.T) {
	Convey("Given a new in-memory guard", t, func() {
		ctx := context.Background()
		g := inflight.NewInMemoryGuard()

		Convey("Then it should be empty", func() {
			So(g.Size(), ShouldEqual, 0)
			_, held := g.Holder(ctx, "s1")
			So(held, ShouldBeFalse)
		})

		Convey("When a session acquires a job", func() {
			holder, err := g.Acquire(ctx, "s1", "job-1")

			Convey("Then it should hold it", func() {
				So(err, ShouldBeNil)
				So(holder, ShouldEqual, "job-1")
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a second acquire should report the running job", func() {
				holder, err := g.Acquire(ctx, "s1", "job-2")
				So(errors.Is(err, inflight.ErrHeld), ShouldBeTrue)
				So(holder, ShouldEqual, "job-1")
			})

			Convey("And another session should not be affected", func() {
				_, err := g.Acquire(ctx, "s2", "job-3")
				So(err, ShouldBeNil)
				So(g.Size(), ShouldEqual, 2)
			})

			Convey("And releasing with a stale job id should be ignored", func() {
				g.Release(ctx, "s1", "job-other")
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And releasing the holder should free the session", func() {
				g.Release(ctx, "s1", "job-1")
				So(g.Size(), ShouldEqual, 0)
				_, err := g.Acquire(ctx, "s1", "job-2")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestInMemoryGuardBounded(t *testing.T) {
	Convey("Given a guard bounded to two sessions", t, func() {
		ctx := context.Background()
		g := inflight.NewInMemoryGuard(inflight.WithMaxSize(2))
		_, err := g.Acquire(ctx, "s1", "j1")
		So(err, ShouldBeNil)
		_, err = g.Acquire(ctx, "s2", "j2")
		So(err, ShouldBeNil)

		Convey("When a third session acquires", func() {
			holder, err := g.Acquire(ctx, "s3", "j3")

			Convey("Then it should be refused and no live hold dropped", func() {
				So(errors.Is(err, inflight.ErrFull), ShouldBeTrue)
				So(holder, ShouldBeEmpty)
				So(g.Size(), ShouldEqual, 2)
				job, held := g.Holder(ctx, "s1")
				So(held, ShouldBeTrue)
				So(job, ShouldEqual, "j1")
				_, held = g.Holder(ctx, "s3")
				So(held, ShouldBeFalse)
			})

			Convey("And the first session should still be blocked", func() {
				holder, err := g.Acquire(ctx, "s1", "j4")
				So(errors.Is(err, inflight.ErrHeld), ShouldBeTrue)
				So(holder, ShouldEqual, "j1")
			})
		})

		Convey("When a hold is released", func() {
			g.Release(ctx, "s1", "j1")

			Convey("Then a new session should fit again", func() {
				_, err := g.Acquire(ctx, "s3", "j3")
				So(err, ShouldBeNil)
				So(g.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unbounded guard", t, func() {
		ctx := context.Background()
		g := inflight.NewInMemoryGuard(inflight.WithMaxSize(0))

		Convey("Then it should keep every hold", func() {
			for i := 0; i < 100; i++ {
				g.Acquire(ctx, fmt.Sprintf("s%d", i), "j")
			}
			So(g.Size(), ShouldEqual, 100)
		})
	})
}

func TestInMemoryGuardConcurrency(t *testing.T) {
	Convey("Given concurrent acquires for the same session", t, func() {
		ctx := context.Background()
		g := inflight.NewInMemoryGuard()
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0

		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := g.Acquire(ctx, "shared", fmt.Sprintf("job-%d", i)); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one should win", func() {
			So(wins, ShouldEqual, 1)
			So(g.Size(), ShouldEqual, 1)
		})
	})
}
