// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"runtime"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of processing workers.
	WorkerCount int `koanf:"worker_count"`

	// SessionGuardSize bounds how many sessions may hold a running job.
	SessionGuardSize int `koanf:"session_guard_size"`

	// ProgressStep and ProgressIntervalMS drive the processing simulator.
	ProgressStep       int `koanf:"progress_step"`
	ProgressIntervalMS int `koanf:"progress_interval_ms"`

	// CompletionDelayMS is how long clients wait before showing the report.
	CompletionDelayMS int `koanf:"completion_delay_ms"`

	// JobTimeoutMS bounds a single job.
	JobTimeoutMS int `koanf:"job_timeout_ms"`

	// AnalyzerAttempts is how often a failing analysis is tried.
	AnalyzerAttempts int `koanf:"analyzer_attempts"`

	// AnalyzerLatencyMinMS and AnalyzerLatencyMaxMS simulate engine latency bounds.
	AnalyzerLatencyMinMS int `koanf:"analyzer_latency_min_ms"`
	AnalyzerLatencyMaxMS int `koanf:"analyzer_latency_max_ms"`

	// StoreBackend selects the job store: memory or redis.
	StoreBackend string `koanf:"store_backend"`

	// Redis connection settings, used when StoreBackend is redis.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// JobTTLSeconds is how long finished jobs stay readable.
	JobTTLSeconds int `koanf:"job_ttl_s"`

	// MaxRequestOverheadBytes is the multipart framing allowed beyond the
	// file size limit.
	MaxRequestOverheadBytes int64 `koanf:"max_request_overhead_bytes"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		QueueSize:               1024,
		WorkerCount:             runtime.NumCPU() * 2,
		SessionGuardSize:        10_000,
		ProgressStep:            10,
		ProgressIntervalMS:      200,
		CompletionDelayMS:       1000,
		JobTimeoutMS:            30_000,
		AnalyzerAttempts:        3,
		AnalyzerLatencyMinMS:    0,
		AnalyzerLatencyMaxMS:    0,
		StoreBackend:            BackendMemory,
		RedisAddr:               "localhost:6379",
		RedisDB:                 0,
		JobTTLSeconds:           3600,
		MaxRequestOverheadBytes: 64 * 1024,
	}
}

// ProgressInterval returns the simulator tick interval.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

// CompletionDelay returns the pause between completion and the report view.
func (c *Config) CompletionDelay() time.Duration {
	return time.Duration(c.CompletionDelayMS) * time.Millisecond
}

// JobTimeout returns the per-job deadline.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutMS) * time.Millisecond
}

// AnalyzerLatency returns the simulated analyzer latency bounds.
func (c *Config) AnalyzerLatency() (minLatency, maxLatency time.Duration) {
	return time.Duration(c.AnalyzerLatencyMinMS) * time.Millisecond,
		time.Duration(c.AnalyzerLatencyMaxMS) * time.Millisecond
}

// JobTTL returns how long jobs are retained.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.JobTTLSeconds) * time.Second
}
