package repository

import "time"

const (
	defaultTTL           = time.Hour
	defaultSweepInterval = time.Minute
	defaultKeyPrefix     = "resumescore:job:"
)

type options struct {
	ttl           time.Duration
	sweepInterval time.Duration
	keyPrefix     string
}

func defaultOptions() options {
	return options{
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		keyPrefix:     defaultKeyPrefix,
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithTTL sets how long a job is kept after its last update.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often the memory store drops expired jobs and
// publishes its size.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithKeyPrefix sets the redis key prefix for job records.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}
