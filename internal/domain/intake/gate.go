// Package intake implements the validation gate that every candidate file
// passes before it is handed to processing.
package intake

import (
	"github.com/okian/resumescore/internal/domain/model"
)

// MaxFileSize is the largest accepted candidate file, in bytes (5 MB).
const MaxFileSize int64 = 5 * 1024 * 1024

// Accepted declared MIME types. Matching is exact; content is not sniffed.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedTypes = map[string]struct{}{
	MIMEPDF:  {},
	MIMEDOCX: {},
}

// Verdict is the outcome of validating one candidate file.
type Verdict struct {
	Accepted bool
	// Title and Reason are user-facing; empty when accepted.
	Title  string
	Reason string
	// Err is ErrFileTooLarge or ErrUnsupportedFileType when rejected.
	Err error
}

// Code returns the machine-readable rejection code, or "" when accepted.
func (v Verdict) Code() string {
	if v.Err == nil {
		return ""
	}
	return CodeOf(v.Err)
}

// Validate applies the size rule, then the type rule.
// A file breaking both rules is reported as too large.
func Validate(f model.CandidateFile) Verdict {
	if f.Size > MaxFileSize {
		return reject(ErrFileTooLarge)
	}
	if !Allowed(f.MIMEType) {
		return reject(ErrUnsupportedFileType)
	}
	return Verdict{Accepted: true}
}

func reject(err error) Verdict {
	title, reason := Explain(err)
	return Verdict{Title: title, Reason: reason, Err: err}
}

// Allowed reports whether mimeType is one of the accepted document types.
func Allowed(mimeType string) bool {
	_, ok := allowedTypes[mimeType]
	return ok
}

// First selects the file an intake attempt considers: the first of files.
// It returns false when files is empty, in which case nothing happens.
func First(files []model.CandidateFile) (model.CandidateFile, bool) {
	if len(files) == 0 {
		return model.CandidateFile{}, false
	}
	return files[0], true
}
