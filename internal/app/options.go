package service

import (
	"time"

	repository "github.com/okian/resumescore/internal/adapters/repository"
	"github.com/okian/resumescore/internal/domain/report"
	"github.com/okian/resumescore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSessionGuardSize bounds how many sessions are tracked as busy.
func WithSessionGuardSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.guardSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgress sets the simulator step and tick interval.
func WithProgress(step int, interval time.Duration) Option {
	return func(s *Service) {
		if step > 0 && step <= 100 {
			s.step = step
		}
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCompletionDelay sets the pause between completion and the report view.
func WithCompletionDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.completionDelay = d
		}
	}
}

// WithJobTimeout bounds each job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithAnalyzerAttempts sets how often a failing analysis is tried.
func WithAnalyzerAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.analyzerAttempts = n
		}
	}
}

// WithAnalyzerLatencyRange sets the simulated latency of the sample analyzer.
func WithAnalyzerLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithAnalyzer replaces the sample analyzer.
func WithAnalyzer(a report.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithStore replaces the default memory job store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreTTL sets how long the default memory store keeps jobs.
func WithStoreTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.storeTTL = ttl
		}
	}
}
