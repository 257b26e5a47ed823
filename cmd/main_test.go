package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/resumescore/internal/config"
	"github.com/okian/resumescore/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		_ = os.Setenv("RESUMESCORE_ADDR", ":9090")
		_ = os.Setenv("RESUMESCORE_QUEUE_SIZE", "16")
		_ = os.Setenv("RESUMESCORE_WORKER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("RESUMESCORE_ADDR")
			_ = os.Unsetenv("RESUMESCORE_QUEUE_SIZE")
			_ = os.Unsetenv("RESUMESCORE_WORKER_COUNT")
		}()

		convey.Convey("Then the service should be built from it", func() {
			ctx := context.Background()
			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")

			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			stats := svc.GetStats()
			convey.So(stats["queueSize"], convey.ShouldEqual, 16)
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["step"], convey.ShouldEqual, 10)
		})
	})
}

func TestNewServiceRedis(t *testing.T) {
	convey.Convey("Given the redis store backend", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.StoreBackend = config.BackendRedis

		convey.Convey("When redis is reachable", func() {
			mr, err := miniredis.Run()
			convey.So(err, convey.ShouldBeNil)
			defer mr.Close()
			cfg.RedisAddr = mr.Addr()

			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then jobs should be persisted in redis", func() {
				convey.So(svc.GetStats()["jobsStored"], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When redis is unreachable", func() {
			cfg.RedisAddr = "127.0.0.1:1"
			_, err := newService(ctx, cfg, logger.Get())

			convey.Convey("Then building the service should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "connect redis")
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the fully wired application", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 1

		svc, err := newService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux, err := newMux(ctx, cfg, svc)
		convey.So(err, convey.ShouldBeNil)

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return rec
		}

		convey.Convey("Then the pages should be served", func() {
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/upload").Code, convey.ShouldEqual, http.StatusOK)
			results := get("/results")
			convey.So(results.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(results.Body.String(), convey.ShouldContainSubstring, "78")
		})

		convey.Convey("Then the API should be served", func() {
			convey.So(get("/api/sample-report").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/jobs/missing").Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then the docs and metrics should be served", func() {
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			updateServiceMetrics(svc)
			updateSystemMetrics()
			metricsBody := get("/healthz").Body.String()
			convey.So(strings.Contains(metricsBody, "resumescore_"), convey.ShouldBeTrue)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		svc, err := newService(ctx, config.New(ctx), logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the updaters should return", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
