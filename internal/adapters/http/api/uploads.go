// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/resumescore/internal/app"
	"github.com/okian/resumescore/internal/domain/intake"
	"github.com/okian/resumescore/internal/domain/model"
)

const (
	// SessionCookie identifies the browser session that owns uploads.
	SessionCookie = "rs_session"
	// fileField is the multipart field carrying the candidate file.
	fileField = "file"
	// maxValidateBody bounds the JSON body of a validation request.
	maxValidateBody = 4 * 1024
)

// UploadDependencies defines the dependencies of the upload handlers.
type UploadDependencies interface {
	Submit(ctx context.Context, session string, f model.CandidateFile) (model.Job, error)
	RecordNoFile()
	CompletionDelay() time.Duration
}

// UploadsHandler handles upload requests.
type UploadsHandler struct {
	deps            UploadDependencies
	maxRequestBytes int64
}

// NewUploadsHandler creates a new uploads handler. Requests may exceed the
// file size limit by overhead bytes of multipart framing.
func NewUploadsHandler(deps UploadDependencies, overhead int64) *UploadsHandler {
	if overhead <= 0 {
		overhead = defaultRequestOverhead
	}
	return &UploadsHandler{deps: deps, maxRequestBytes: intake.MaxFileSize + overhead}
}

// HandleUpload handles POST /api/uploads requests.
func (h *UploadsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)

	file, err := readCandidate(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeKindError(w, WrapKind(op, intake.ErrFileTooLarge, err))
		case errors.Is(err, ErrNoFile):
			h.deps.RecordNoFile()
			writeError(w, http.StatusBadRequest, "no_file", NewKind(op, ErrNoFile))
		default:
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		}
		return
	}

	session := sessionID(w, r)
	job, err := h.deps.Submit(r.Context(), session, file)
	switch {
	case errors.Is(err, service.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{
			Code:    "upload_in_progress",
			Message: "an upload is already being processed",
			JobID:   job.ID,
		})
		return
	case err != nil:
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, newJobResponse(job, h.deps.CompletionDelay()))
}

// readCandidate returns the first file part of a multipart upload. Later
// parts are not read. The size is counted while draining, capped one byte
// past the limit so oversized files are detected without buffering them.
func readCandidate(r *http.Request) (model.CandidateFile, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return model.CandidateFile{}, err
	}
	var files []model.CandidateFile
	for len(files) == 0 {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.CandidateFile{}, err
		}
		if part.FormName() != fileField || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		size, err := io.Copy(io.Discard, io.LimitReader(part, intake.MaxFileSize+1))
		_ = part.Close()
		if err != nil {
			return model.CandidateFile{}, err
		}
		files = append(files, model.CandidateFile{
			Name:     part.FileName(),
			Size:     size,
			MIMEType: part.Header.Get("Content-Type"),
		})
	}
	f, ok := intake.First(files)
	if !ok {
		return model.CandidateFile{}, ErrNoFile
	}
	return f, nil
}

// sessionID returns the session of r, issuing a new cookie when the request
// carries none or a malformed one.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// validateRequest mirrors the OpenAPI schema for POST /api/uploads/validate.
type validateRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type validateResponse struct {
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Title    string `json:"title,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// HandleValidate handles POST /api/uploads/validate requests. It applies the
// intake rules to a file description without creating anything.
func (h *UploadsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req validateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxValidateBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Size < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("size must not be negative")))
		return
	}

	v := intake.Validate(model.CandidateFile{
		Name:     strings.TrimSpace(req.Name),
		Size:     req.Size,
		MIMEType: req.Type,
	})
	writeJSON(w, http.StatusOK, validateResponse{
		Accepted: v.Accepted,
		Code:     v.Code(),
		Title:    v.Title,
		Reason:   v.Reason,
	})
}
