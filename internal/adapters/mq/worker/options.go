package worker

import (
	"time"

	"github.com/okian/resumescore/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithProgress sets the simulator step, tick interval and completion delay.
func WithProgress(step int, interval, completionDelay time.Duration) Option {
	return func(w *InMemoryWorker) {
		if step > 0 {
			w.step = step
		}
		if interval > 0 {
			w.interval = interval
		}
		if completionDelay >= 0 {
			w.completionDelay = completionDelay
		}
	}
}

// WithJobTimeout bounds a whole job, simulation and analysis included.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithAnalyzerAttempts sets how many times a failing analysis is tried.
func WithAnalyzerAttempts(n int) Option {
	return func(w *InMemoryWorker) {
		if n > 0 {
			w.attempts = n
		}
	}
}

// WithReleaser frees the session slot whenever a job ends.
func WithReleaser(r Releaser) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.guard = r
		}
	}
}
