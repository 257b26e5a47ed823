// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/resumescore/internal/domain/intake"
	"github.com/okian/resumescore/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit runs a file through intake and queues a job for session.
	Submit(ctx context.Context, session string, f model.CandidateFile) (model.Job, error)
	// RecordNoFile counts an intake attempt without a file.
	RecordNoFile()

	// Read operations expose job state and reports.
	Job(ctx context.Context, id string) (model.Job, error)
	Report(ctx context.Context, id string) (model.ScoreReport, error)
	SampleReport() model.ScoreReport
	CompletionDelay() time.Duration
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	uploadsHandler *UploadsHandler
	jobsHandler    *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		uploadsHandler: NewUploadsHandler(deps, o.maxRequestOverhead),
		jobsHandler:    NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/uploads", MetricsMiddleware(s.uploadsHandler.HandleUpload, "uploads"))
	mux.HandleFunc("/api/uploads/validate", MetricsMiddleware(s.uploadsHandler.HandleValidate, "uploads_validate"))
	mux.HandleFunc("/api/sample-report", MetricsMiddleware(s.jobsHandler.HandleSampleReport, "sample_report"))
	mux.HandleFunc("/api/jobs/", MetricsMiddleware(s.jobsHandler.HandleJob, "jobs"))
}

// jobResponse is the status body of one job.
type jobResponse struct {
	ID                string              `json:"id"`
	State             model.JobState      `json:"state"`
	Progress          int                 `json:"progress"`
	File              model.CandidateFile `json:"file"`
	Error             string              `json:"error,omitempty"`
	CompletionDelayMs int64               `json:"completion_delay_ms"`
	ReportURL         string              `json:"report_url,omitempty"`
}

func newJobResponse(job model.Job, delay time.Duration) jobResponse { //nolint:gocritic // hugeParam
	resp := jobResponse{
		ID:                job.ID,
		State:             job.State,
		Progress:          job.Progress,
		File:              job.File,
		Error:             job.Error,
		CompletionDelayMs: delay.Milliseconds(),
	}
	if job.State == model.JobComplete {
		resp.ReportURL = "/results?job=" + job.ID
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Title   string `json:"title,omitempty"`
	JobID   string `json:"job_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError picks status and code from the kind of err. Intake
// rejections carry their user-facing title and reason.
func writeKindError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if title, reason := intake.Explain(err); title != "" {
		writeJSON(w, status, errorResponse{Code: code, Message: reason, Title: title})
		return
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Err != nil {
		err = apiErr.Err
	}
	writeError(w, status, code, err)
}
