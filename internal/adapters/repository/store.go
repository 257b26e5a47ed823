// Package repository stores job status, progress and reports.
package repository

import (
	"context"
	"time"

	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/internal/domain/progress"
)

// Store provides read/write access to job state.
//
// Writers are expected to be single per job (the worker that owns it), but
// every implementation is safe for concurrent use.
type Store interface {
	// Create records a new job. Returns ErrExists if the ID is taken.
	Create(ctx context.Context, job model.Job) error

	// Get returns a job by ID. Returns ErrNotFound if it is unknown or expired.
	Get(ctx context.Context, id string) (model.Job, error)

	// UpdateProgress raises the job's progress. Lower or equal values are
	// ignored so progress never goes backwards. Returns ErrTerminal once the
	// job is complete or failed.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// Complete stores the report and moves the job to complete at 100.
	Complete(ctx context.Context, id string, r model.ScoreReport) error

	// Fail moves the job to failed with a user-facing reason.
	Fail(ctx context.Context, id string, reason string) error

	// Count returns the number of jobs currently stored.
	Count(ctx context.Context) int

	// Close releases background resources.
	Close() error
}

func applyProgress(job *model.Job, p int, now time.Time) error {
	if job.State.Terminal() {
		return ErrTerminal
	}
	p = min(p, progress.Max)
	if p <= job.Progress {
		return nil
	}
	job.Progress = p
	job.UpdatedAt = now
	return nil
}

func applyComplete(job *model.Job, r model.ScoreReport, now time.Time) error {
	if job.State.Terminal() {
		return ErrTerminal
	}
	job.State = model.JobComplete
	job.Progress = progress.Max
	job.Report = &r
	job.UpdatedAt = now
	return nil
}

func applyFail(job *model.Job, reason string, now time.Time) error {
	if job.State.Terminal() {
		return ErrTerminal
	}
	job.State = model.JobFailed
	job.Error = reason
	job.UpdatedAt = now
	return nil
}
