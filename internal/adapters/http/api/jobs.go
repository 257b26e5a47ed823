// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/resumescore/internal/domain/model"
)

// JobDependencies defines the read dependencies of the job handlers.
type JobDependencies interface {
	Job(ctx context.Context, id string) (model.Job, error)
	Report(ctx context.Context, id string) (model.ScoreReport, error)
	SampleReport() model.ScoreReport
	CompletionDelay() time.Duration
}

// JobsHandler handles job status and report requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleJob handles GET /api/jobs/{id} and GET /api/jobs/{id}/report.
func (h *JobsHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing job id")))
		return
	}
	switch sub {
	case "":
		h.status(w, r, id)
	case "report":
		h.report(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *JobsHandler) status(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_job"
	job, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newJobResponse(job, h.deps.CompletionDelay()))
}

func (h *JobsHandler) report(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_report"
	rep, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="resume-report-`+id+`.json"`)
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleSampleReport handles GET /api/sample-report requests.
func (h *JobsHandler) HandleSampleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.SampleReport())
}
