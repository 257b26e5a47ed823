package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "RESUMESCORE_"
	envFileVar = envPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if RESUMESCORE_CONFIG is set
//  3. env (prefix RESUMESCORE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RESUMESCORE_QUEUE_SIZE -> queue_size. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case !validLevel(c.LogLevel):
		return invalid("log_level must be one of debug, info, warn, error")
	case c.QueueSize <= 0:
		return invalid("queue_size must be positive")
	case c.WorkerCount <= 0:
		return invalid("worker_count must be positive")
	case c.SessionGuardSize <= 0:
		return invalid("session_guard_size must be positive")
	case c.ProgressStep < 1 || c.ProgressStep > 100:
		return invalid("progress_step must be between 1 and 100")
	case c.ProgressIntervalMS <= 0:
		return invalid("progress_interval_ms must be positive")
	case c.CompletionDelayMS < 0:
		return invalid("completion_delay_ms must not be negative")
	case c.JobTimeoutMS <= 0:
		return invalid("job_timeout_ms must be positive")
	case c.AnalyzerAttempts < 1:
		return invalid("analyzer_attempts must be at least 1")
	case c.AnalyzerLatencyMinMS < 0 || c.AnalyzerLatencyMaxMS < c.AnalyzerLatencyMinMS:
		return invalid("analyzer latency bounds must satisfy 0 <= min <= max")
	case c.JobTTLSeconds <= 0:
		return invalid("job_ttl_s must be positive")
	case c.MaxRequestOverheadBytes <= 0:
		return invalid("max_request_overhead_bytes must be positive")
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return invalid("redis_addr must not be empty for the redis backend")
		}
		if c.RedisDB < 0 {
			return invalid("redis_db must not be negative")
		}
	default:
		return invalid(fmt.Sprintf("store_backend %q is not memory or redis", c.StoreBackend))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

func validLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
