package api

import (
	"errors"
	"net/http"

	repository "github.com/okian/resumescore/internal/adapters/repository"
	service "github.com/okian/resumescore/internal/app"
	"github.com/okian/resumescore/internal/domain/intake"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoFile     = errors.New("no file provided")
)

// Error annotates an error with the operation that produced it and an
// optional kind used to pick the HTTP status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// statusFor maps an error to its HTTP status and machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, intake.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, intake.CodeFileTooLarge
	case errors.Is(err, intake.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, intake.CodeUnsupportedFileType
	case errors.Is(err, ErrNoFile):
		return http.StatusBadRequest, "no_file"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrBusy):
		return http.StatusConflict, "upload_in_progress"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotReady):
		return http.StatusConflict, "report_not_ready"
	case errors.Is(err, service.ErrJobFailed):
		return http.StatusUnprocessableEntity, "job_failed"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
