// Package worker runs accepted jobs: it drives the processing simulator,
// asks the analyzer for a report and records the outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"golang.org/x/sync/errgroup"

	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/internal/domain/progress"
	"github.com/okian/resumescore/pkg/logger"
	"github.com/okian/resumescore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4
	defaultJobTimeout       = 30 * time.Second
	defaultAnalyzerAttempts = 3
	defaultRetryDelay       = 50 * time.Millisecond
	storeWriteTimeout       = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Failure reasons recorded on metrics.
const (
	reasonTimeout  = "timeout"
	reasonCanceled = "canceled"
	reasonAnalyzer = "analyzer"
	reasonStore    = "store"
)

// Job is what workers read off the queue.
type Job = model.Job

// Store records job progress and outcome.
type Store interface {
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, r model.ScoreReport) error
	Fail(ctx context.Context, id string, reason string) error
}

// Analyzer produces the report for a job's file.
type Analyzer interface {
	Analyze(ctx context.Context, f model.CandidateFile) (model.ScoreReport, error)
}

// Releaser frees the per-session upload slot once a job ends.
type Releaser interface {
	Release(ctx context.Context, session, jobID string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	store    Store
	guard    Releaser
	name     string

	step            int
	interval        time.Duration
	completionDelay time.Duration
	jobTimeout      time.Duration
	attempts        int

	running *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:           queue,
		analyzer:        analyzer,
		store:           store,
		name:            "worker",
		step:            progress.DefaultStep,
		interval:        progress.DefaultInterval,
		completionDelay: progress.DefaultCompletionDelay,
		jobTimeout:      defaultJobTimeout,
		attempts:        defaultAnalyzerAttempts,
		running:         &atomic.Int64{},
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
		logger:          logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "job failed",
					logger.String("job_id", job.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job to a terminal state and always releases its session.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job arrives by value from the channel
	start := time.Now()
	metrics.UpdateJobsRunning(w.running.Add(1))
	defer func() {
		metrics.UpdateJobsRunning(w.running.Add(-1))
		if w.guard != nil {
			w.guard.Release(context.WithoutCancel(ctx), job.SessionID, job.ID)
		}
	}()

	sim, err := progress.New(
		progress.WithID(job.ID),
		progress.WithStep(w.step),
		progress.WithInterval(w.interval),
		progress.WithCompletionDelay(w.completionDelay),
	)
	if err == nil {
		err = sim.Start()
	}
	if err != nil {
		w.fail(ctx, job, reasonStore, start, err)
		return fmt.Errorf("start simulator: %w", err)
	}

	var analyzerFailed atomic.Bool
	t := timeout.New[model.ScoreReport](timeout.Config{DefaultTimeout: w.jobTimeout})
	rep, err := t.Execute(ctx, w.jobTimeout, func(ctx context.Context) (model.ScoreReport, error) {
		var rep model.ScoreReport
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return sim.Run(gctx, func(p int) {
				if err := w.store.UpdateProgress(gctx, job.ID, p); err != nil {
					w.logger.Warn(gctx, "progress write failed",
						logger.String("job_id", job.ID),
						logger.Int("progress", p),
						logger.Error(err),
					)
				}
			})
		})
		g.Go(func() error {
			r := retry.New[model.ScoreReport](retry.Config{
				MaxAttempts:   w.attempts,
				InitialDelay:  defaultRetryDelay,
				BackoffPolicy: retry.BackoffExponential,
			})
			var err error
			rep, err = r.Do(gctx, func(ctx context.Context) (model.ScoreReport, error) {
				return w.analyzer.Analyze(ctx, job.File)
			})
			if err != nil {
				if gctx.Err() == nil {
					analyzerFailed.Store(true)
				}
				return fmt.Errorf("analyze: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return model.ScoreReport{}, err
		}
		return rep, nil
	})
	if err != nil {
		reason := reasonTimeout
		switch {
		case ctx.Err() != nil:
			reason = reasonCanceled
		case analyzerFailed.Load():
			reason = reasonAnalyzer
		}
		if sim.State() == progress.StateRunning {
			_ = sim.Fail()
		}
		w.fail(ctx, job, reason, start, err)
		return err
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
	defer cancel()
	if err := w.store.Complete(wctx, job.ID, rep); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordJobFailed(reasonStore, float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	metrics.RecordJobCompleted(float64(time.Since(start).Milliseconds()))
	w.logger.Debug(ctx, "job complete",
		logger.String("job_id", job.ID),
		logger.Int("overall", rep.Overall),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, job Job, reason string, start time.Time, cause error) { //nolint:gocritic // hugeParam
	metrics.RecordWorkerError()
	metrics.RecordJobFailed(reason, float64(time.Since(start).Milliseconds()))

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
	defer cancel()
	if err := w.store.Fail(wctx, job.ID, failureMessage(reason, cause)); err != nil {
		w.logger.Error(ctx, "failed to record job failure",
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
	}
}

func failureMessage(reason string, cause error) string {
	switch reason {
	case reasonTimeout:
		return "processing timed out"
	case reasonCanceled:
		if errors.Is(cause, context.DeadlineExceeded) {
			return "processing timed out"
		}
		return "processing cancelled"
	default:
		return cause.Error()
	}
}

// Pool manages multiple workers under one errgroup.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	running atomic.Int64

	group  *errgroup.Group
	cancel context.CancelFunc

	logger logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, analyzer, store, workerOpts...)
		w.running = &pool.running
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateJobsRunning(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Running returns the number of jobs in progress.
func (p *Pool) Running() int64 {
	return p.running.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for _, w := range p.workers {
		w := w
		p.group.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}
}

// Shutdown closes the queue, cancels in-flight jobs and waits for every
// worker to exit. Cancelled jobs are recorded as failed.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if p.group == nil {
		return nil
	}
	p.cancel()

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("workers", len(p.workers)))
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
}
