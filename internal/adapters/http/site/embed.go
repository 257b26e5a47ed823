package site

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/okian/resumescore/internal/domain/report"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ringCircumference is the stroke length of the score ring (r=40).
const ringCircumference = 251.0

var funcMap = template.FuncMap{
	"ringDash": func(score int) string {
		return strconv.FormatFloat(float64(score)*ringCircumference/100, 'f', -1, 64)
	},
	"statusClass": statusClass,
	"tone":        report.Tone,
	"stars":       func(n int) []struct{} { return make([]struct{}, n) },
}

// statusClass maps a category status to its badge colour.
func statusClass(status string) string {
	switch status {
	case report.StatusExcellent:
		return "success"
	case report.StatusWarning:
		return "warning"
	default:
		return "default"
	}
}
