// Package inflight tracks which client sessions have a job running, so a
// session cannot start a second upload until the first one finishes.
package inflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Acquire errors.
var (
	// ErrHeld means the session already has a running job.
	ErrHeld = errors.New("session already has a running job")
	// ErrFull means the guard tracks its maximum number of sessions.
	ErrFull = errors.New("too many sessions with running jobs")
)

// Guard allows at most one running job per session.
type Guard interface {
	// Acquire records jobID as the running job of session. It returns the
	// current holder with ErrHeld if the session already has one, and
	// ErrFull when no further session can be tracked. Live holds are never
	// evicted.
	Acquire(ctx context.Context, session, jobID string) (string, error)

	// Release frees the session, but only if jobID is still its holder.
	Release(ctx context.Context, session, jobID string)

	// Holder returns the running job of session, if any.
	Holder(ctx context.Context, session string) (string, bool)

	Size() int64
}

// inMemoryGuard maps sessions to their running job.
type inMemoryGuard struct {
	mu      sync.Mutex
	holds   map[string]string
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates a guard with configuration options.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.holds = make(map[string]string)
	return g
}

func (g *inMemoryGuard) Acquire(_ context.Context, session, jobID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if holder, exists := g.holds[session]; exists {
		return holder, ErrHeld
	}
	if g.maxSize > 0 && len(g.holds) >= g.maxSize {
		return "", ErrFull
	}

	g.holds[session] = jobID
	g.size.Add(1)
	return jobID, nil
}

func (g *inMemoryGuard) Release(_ context.Context, session, jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if holder, exists := g.holds[session]; !exists || holder != jobID {
		return
	}
	delete(g.holds, session)
	g.size.Add(-1)
}

func (g *inMemoryGuard) Holder(_ context.Context, session string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	holder, exists := g.holds[session]
	return holder, exists
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
