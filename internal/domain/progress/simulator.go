// Package progress implements the processing simulator: a job state machine
// whose progress advances in fixed steps on a fixed interval.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/okian/resumescore/internal/domain/model"
)

// State constants for statekit integration.
// These must remain untyped string constants for statekit.StateID compatibility.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// Events accepted by the machine.
const (
	EventStart  = "start"
	EventFinish = "finish"
	EventFail   = "fail"
	EventReset  = "reset"
)

// Defaults for the simulator.
const (
	Max                    = 100
	DefaultStep            = 10
	DefaultInterval        = 200 * time.Millisecond
	DefaultCompletionDelay = time.Second
)

// ErrInvalidTransition is returned when an event is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid transition")

func init() {
	stateMap := map[string]model.JobState{
		StateIdle:     model.JobIdle,
		StateRunning:  model.JobRunning,
		StateComplete: model.JobComplete,
		StateFailed:   model.JobFailed,
	}
	for fsmState, jobState := range stateMap {
		if fsmState != string(jobState) {
			panic(fmt.Sprintf("progress state %q does not match job state %q", fsmState, jobState))
		}
	}
}

type simContext struct {
	ID string
}

// Simulator drives a single job from idle to complete. It is safe for
// concurrent use; Run must only be called by one goroutine at a time.
type Simulator struct {
	id              string
	step            int
	interval        time.Duration
	completionDelay time.Duration

	mu       sync.Mutex
	interp   *statekit.Interpreter[simContext]
	progress int
}

// New builds a simulator in the idle state.
func New(opts ...Option) (*Simulator, error) {
	s := &Simulator{
		step:            DefaultStep,
		interval:        DefaultInterval,
		completionDelay: DefaultCompletionDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	builder := statekit.NewMachine[simContext]("progress").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(simContext{ID: s.id})

	builder.State(StateIdle).
		On(EventStart).Target(StateRunning).
		Done()

	builder.State(StateRunning).
		On(EventFinish).Target(StateComplete).
		On(EventFail).Target(StateFailed).
		Done()

	builder.State(StateComplete).
		On(EventReset).Target(StateIdle).
		Done()

	builder.State(StateFailed).
		On(EventReset).Target(StateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build progress machine: %w", err)
	}

	s.interp = statekit.NewInterpreter(machine)
	s.interp.Start()
	return s, nil
}

// State returns the current state name.
func (s *Simulator) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// Progress returns the current progress, 0..100.
func (s *Simulator) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// CompletionDelay returns the post-completion delay clients should honour.
func (s *Simulator) CompletionDelay() time.Duration {
	return s.completionDelay
}

// Start moves idle to running and resets progress to 0.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.send(EventStart); err != nil {
		return err
	}
	s.progress = 0
	return nil
}

// Fail moves running to failed. Progress keeps its last value.
func (s *Simulator) Fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(EventFail)
}

// Reset returns a terminal simulator to idle with progress 0.
func (s *Simulator) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.send(EventReset); err != nil {
		return err
	}
	s.progress = 0
	return nil
}

// Run advances progress by the configured step on every interval until it
// reaches 100, then transitions to complete. onTick, if non-nil, receives
// each new value; values are strictly increasing and the last one is 100.
// When ctx ends first the simulator fails and ctx's error is returned.
func (s *Simulator) Run(ctx context.Context, onTick func(progress int)) error {
	if state := s.State(); state != StateRunning {
		return fmt.Errorf("run in state %q: %w", state, ErrInvalidTransition)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Fail(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			p, done, err := s.tick()
			if err != nil {
				return err
			}
			if onTick != nil {
				onTick(p)
			}
			if done {
				return nil
			}
		}
	}
}

func (s *Simulator) tick() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current() != StateRunning {
		return s.progress, false, fmt.Errorf("tick in state %q: %w", s.current(), ErrInvalidTransition)
	}
	s.progress = min(s.progress+s.step, Max)
	if s.progress < Max {
		return s.progress, false, nil
	}
	if err := s.send(EventFinish); err != nil {
		return s.progress, false, err
	}
	return s.progress, true, nil
}

// send must be called with s.mu held.
func (s *Simulator) send(event string) error {
	before := s.current()
	s.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	if s.current() != before {
		return nil
	}
	return fmt.Errorf("event %q in state %q: %w", event, before, ErrInvalidTransition)
}

func (s *Simulator) current() string {
	return string(s.interp.State().Value)
}
