// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/resumescore/internal/adapters/mq/queue"
	workerpool "github.com/okian/resumescore/internal/adapters/mq/worker"
	repository "github.com/okian/resumescore/internal/adapters/repository"
	"github.com/okian/resumescore/internal/domain/inflight"
	"github.com/okian/resumescore/internal/domain/intake"
	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/internal/domain/progress"
	"github.com/okian/resumescore/internal/domain/report"
	"github.com/okian/resumescore/pkg/logger"
	"github.com/okian/resumescore/pkg/metrics"
)

// Service errors. Intake rejections are returned as intake.ErrFileTooLarge
// or intake.ErrUnsupportedFileType.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBusy         = errors.New("upload already in progress")
	ErrBackpressure = errors.New("too many uploads in progress")
	ErrNotReady     = errors.New("report not ready")
	ErrJobFailed    = errors.New("job failed")
)

const backpressureReason = "server busy, please try again"

// Service implements the API dependencies for resume intake and scoring.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	guard    inflight.Guard
	queue    jobqueue.Queue
	analyzer report.Analyzer
	pool     *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	guardSize        int
	step             int
	interval         time.Duration
	completionDelay  time.Duration
	jobTimeout       time.Duration
	analyzerAttempts int
	minLatency       time.Duration
	maxLatency       time.Duration
	storeTTL         time.Duration

	// State
	started   bool
	ownsStore bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        1024,
		guardSize:        10000,
		step:             progress.DefaultStep,
		interval:         progress.DefaultInterval,
		completionDelay:  progress.DefaultCompletionDelay,
		jobTimeout:       30 * time.Second,
		analyzerAttempts: 3,
		storeTTL:         time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting resume scoring service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithTTL(s.storeTTL))
		s.ownsStore = true
		s.logger.Info(ctx, "using memory job store")
	}
	if s.analyzer == nil {
		s.analyzer = report.NewSampleAnalyzer(report.WithLatencyRange(s.minLatency, s.maxLatency))
	}
	s.guard = inflight.NewInMemoryGuard(inflight.WithMaxSize(s.guardSize))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.analyzer, s.store,
		workerpool.WithProgress(s.step, s.interval, s.completionDelay),
		workerpool.WithJobTimeout(s.jobTimeout),
		workerpool.WithAnalyzerAttempts(s.analyzerAttempts),
		workerpool.WithReleaser(s.guard),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "resume scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("step", s.step),
		logger.Duration("interval", s.interval),
		logger.Duration("jobTimeout", s.jobTimeout),
	)

	return nil
}

// Stop gracefully shuts down the service. Running jobs end as failed.
// A memory store created by Start is dropped, so a later Start begins with
// an empty one. A store passed with WithStore is closed and cannot be reused.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping resume scoring service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "job store close", logger.Error(err))
		}
		if s.ownsStore {
			s.store = nil
			s.ownsStore = false
		}
	}

	s.started = false
	s.logger.Info(ctx, "resume scoring service stopped")
}

// Submit runs a candidate file through the intake gate and, when accepted,
// creates a running job for session and queues it. When the session already
// has a running job, that job is returned with ErrBusy.
func (s *Service) Submit(ctx context.Context, session string, f model.CandidateFile) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}

	if v := intake.Validate(f); !v.Accepted {
		metrics.RecordUpload(outcomeFor(v.Err))
		s.logger.Debug(ctx, "upload rejected",
			logger.String("file", f.Name),
			logger.Int64("size", f.Size),
			logger.String("type", f.MIMEType),
			logger.String("code", v.Code()),
		)
		return model.Job{}, v.Err
	}

	id := uuid.NewString()
	if holder, err := s.guard.Acquire(ctx, session, id); err != nil {
		if errors.Is(err, inflight.ErrFull) {
			metrics.RecordUpload(metrics.OutcomeBackpressure)
			s.logger.Warn(ctx, "session guard full", logger.Int64("sessions", s.guard.Size()))
			return model.Job{}, ErrBackpressure
		}
		metrics.RecordUpload(metrics.OutcomeBusy)
		running, gerr := s.store.Get(ctx, holder)
		if gerr != nil {
			running = model.Job{ID: holder, State: model.JobRunning}
		}
		return running, ErrBusy
	}

	now := time.Now()
	job := model.Job{
		ID:        id,
		SessionID: session,
		File:      f,
		State:     model.JobRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, job); err != nil {
		s.guard.Release(ctx, session, id)
		return model.Job{}, fmt.Errorf("create job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.guard.Release(ctx, session, id)
		if ferr := s.store.Fail(ctx, id, backpressureReason); ferr != nil {
			s.logger.Warn(ctx, "failed to record rejected job", logger.String("job_id", id), logger.Error(ferr))
		}
		metrics.RecordUpload(metrics.OutcomeBackpressure)
		if errors.Is(err, jobqueue.ErrFull) {
			return model.Job{}, ErrBackpressure
		}
		return model.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	metrics.RecordUpload(metrics.OutcomeAccepted)
	metrics.RecordUploadSize(f.Size)
	s.logger.Info(ctx, "upload accepted",
		logger.String("job_id", id),
		logger.String("file", f.Name),
		logger.Int64("size", f.Size),
	)
	return job, nil
}

// RecordNoFile counts an intake attempt that carried no file.
func (s *Service) RecordNoFile() {
	metrics.RecordUpload(metrics.OutcomeNoFile)
}

// Job returns the current state of a job.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Report returns the report of a completed job. Running jobs yield
// ErrNotReady and failed jobs ErrJobFailed.
func (s *Service) Report(ctx context.Context, id string) (model.ScoreReport, error) {
	job, err := s.Job(ctx, id)
	if err != nil {
		return model.ScoreReport{}, err
	}
	switch job.State {
	case model.JobComplete:
		if job.Report == nil {
			return model.ScoreReport{}, ErrNotReady
		}
		return *job.Report, nil
	case model.JobFailed:
		return model.ScoreReport{}, fmt.Errorf("%s: %w", job.Error, ErrJobFailed)
	default:
		return model.ScoreReport{}, ErrNotReady
	}
}

// SampleReport returns the sample report shown when no job is selected.
func (s *Service) SampleReport() model.ScoreReport {
	return report.Sample()
}

// CompletionDelay is how long clients wait after completion before showing
// the report.
func (s *Service) CompletionDelay() time.Duration {
	return s.completionDelay
}

// ActiveJob returns the running job of session, if any.
func (s *Service) ActiveJob(ctx context.Context, session string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false
	}
	return s.guard.Holder(ctx, session)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"step":        s.step,
		"intervalMs":  s.interval.Milliseconds(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		jobs := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["jobsStored"] = jobs
		stats["jobsRunning"] = s.pool.Running()
		stats["activeSessions"] = s.guard.Size()

		metrics.UpdateJobsStored(jobs)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, intake.ErrFileTooLarge):
		return metrics.OutcomeTooLarge
	case errors.Is(err, intake.ErrUnsupportedFileType):
		return metrics.OutcomeWrongType
	default:
		return "rejected"
	}
}
