package progress

import "time"

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithStep sets the progress increment per tick. Values outside 1..100 are ignored.
func WithStep(step int) Option {
	return func(s *Simulator) {
		if step > 0 && step <= Max {
			s.step = step
		}
	}
}

// WithInterval sets the time between ticks.
func WithInterval(interval time.Duration) Option {
	return func(s *Simulator) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCompletionDelay sets how long clients wait after completion before
// navigating to the report.
func WithCompletionDelay(delay time.Duration) Option {
	return func(s *Simulator) {
		if delay >= 0 {
			s.completionDelay = delay
		}
	}
}

// WithID labels the simulator, typically with the job ID.
func WithID(id string) Option {
	return func(s *Simulator) {
		s.id = id
	}
}
