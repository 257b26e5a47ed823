package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/pkg/metrics"
)

// MemoryStore keeps jobs in a map. Jobs not updated within the TTL are
// dropped by a background sweeper.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
	opts options
	now  func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a memory store and starts its sweeper, which
// stops when ctx ends or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		jobs:     make(map[string]model.Job),
		opts:     defaultOptions(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}

	metrics.UpdateJobsStored(0)
	s.startSweeper(ctx)

	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// sweep removes expired jobs and publishes the store size.
func (s *MemoryStore) sweep() {
	cutoff := s.now().Add(-s.opts.ttl)

	s.mu.Lock()
	for id, job := range s.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
	n := len(s.jobs)
	s.mu.Unlock()

	metrics.UpdateJobsStored(n)
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, job model.Job) error { //nolint:gocritic // hugeParam: stored by value
	now := s.now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	s.mu.Lock()
	if _, exists := s.jobs[job.ID]; exists {
		s.mu.Unlock()
		return ErrExists
	}
	s.jobs[job.ID] = job
	n := len(s.jobs)
	s.mu.Unlock()

	metrics.UpdateJobsStored(n)
	return nil
}

// Get implements Store. The returned job does not alias stored state.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	if job.Report != nil {
		r := *job.Report
		job.Report = &r
	}
	return job, nil
}

// UpdateProgress implements Store.
func (s *MemoryStore) UpdateProgress(_ context.Context, id string, p int) error {
	return s.mutate(id, func(job *model.Job) error {
		return applyProgress(job, p, s.now())
	})
}

// Complete implements Store.
func (s *MemoryStore) Complete(_ context.Context, id string, r model.ScoreReport) error {
	return s.mutate(id, func(job *model.Job) error {
		return applyComplete(job, r, s.now())
	})
}

// Fail implements Store.
func (s *MemoryStore) Fail(_ context.Context, id string, reason string) error {
	return s.mutate(id, func(job *model.Job) error {
		return applyFail(job, reason, s.now())
	})
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) mutate(id string, fn func(*model.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(&job); err != nil {
		return err
	}
	s.jobs[id] = job
	return nil
}
