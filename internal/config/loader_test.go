package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/resumescore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.ProgressStep, convey.ShouldEqual, 10)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendMemory)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RESUMESCORE_ADDR", ":9090")
			_ = os.Setenv("RESUMESCORE_QUEUE_SIZE", "64")
			_ = os.Setenv("RESUMESCORE_WORKER_COUNT", "4")
			_ = os.Setenv("RESUMESCORE_PROGRESS_INTERVAL_MS", "50")
			_ = os.Setenv("RESUMESCORE_STORE_BACKEND", "redis")
			_ = os.Setenv("RESUMESCORE_REDIS_ADDR", "redis:6379")
			_ = os.Setenv("RESUMESCORE_REDIS_DB", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.ProgressIntervalMS, convey.ShouldEqual, 50)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":7070"
queue_size: 16
completion_delay_ms: 0
analyzer_latency_min_ms: 10
analyzer_latency_max_ms: 20
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESUMESCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.CompletionDelayMS, convey.ShouldEqual, 0)
				convey.So(cfg.AnalyzerLatencyMaxMS, convey.ShouldEqual, 20)
				convey.So(cfg.ProgressStep, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":7070"
queue_size: 16
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESUMESCORE_CONFIG", tmpFile)
			_ = os.Setenv("RESUMESCORE_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060") // Overridden by env
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESUMESCORE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RESUMESCORE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RESUMESCORE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RESUMESCORE_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store backend", func() {
			_ = os.Setenv("RESUMESCORE_STORE_BACKEND", "cassandra")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

var configEnvVars = []string{
	"RESUMESCORE_CONFIG",
	"RESUMESCORE_ADDR",
	"RESUMESCORE_QUEUE_SIZE",
	"RESUMESCORE_WORKER_COUNT",
	"RESUMESCORE_PROGRESS_INTERVAL_MS",
	"RESUMESCORE_STORE_BACKEND",
	"RESUMESCORE_REDIS_ADDR",
	"RESUMESCORE_REDIS_DB",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "resumescore-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
