package site

import (
	"time"

	"github.com/okian/resumescore/pkg/logger"
)

const defaultPollInterval = 200 * time.Millisecond

// Option configures a Site.
type Option func(*Site)

// WithPollInterval sets how often the upload page polls job status.
func WithPollInterval(d time.Duration) Option {
	return func(s *Site) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the logger used for render failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.logger = l
		}
	}
}
