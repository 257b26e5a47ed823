package intake

import "errors"

// Sentinel kinds for intake rejections.
var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Rejection codes exposed to clients.
const (
	CodeFileTooLarge        = "file_too_large"
	CodeUnsupportedFileType = "unsupported_file_type"
)

// CodeOf maps an intake error to its rejection code. Unknown errors map to "".
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return CodeFileTooLarge
	case errors.Is(err, ErrUnsupportedFileType):
		return CodeUnsupportedFileType
	default:
		return ""
	}
}

// Explain returns the user-facing title and reason for an intake error.
func Explain(err error) (title, reason string) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "File too large", "Please select a file smaller than 5MB"
	case errors.Is(err, ErrUnsupportedFileType):
		return "Invalid file type", "Please upload a PDF or DOCX file"
	default:
		return "", ""
	}
}
