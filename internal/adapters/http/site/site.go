// Package site serves the landing, upload and results pages.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	repository "github.com/okian/resumescore/internal/adapters/repository"
	"github.com/okian/resumescore/internal/domain/intake"
	"github.com/okian/resumescore/internal/domain/model"
	"github.com/okian/resumescore/pkg/logger"
)

// Error constants
var (
	ErrGenerate = errors.New("site template parse failed")
	ErrServe    = errors.New("site render failed")
)

// ReportSource provides the jobs and reports rendered by the results page.
type ReportSource interface {
	Job(ctx context.Context, id string) (model.Job, error)
	SampleReport() model.ScoreReport
}

// Site renders the HTML pages.
type Site struct {
	src          ReportSource
	tmpl         *template.Template
	static       http.Handler
	pollInterval time.Duration
	logger       logger.Logger
}

// New parses the embedded templates.
func New(src ReportSource, opts ...Option) (*Site, error) {
	s := &Site{
		src:          src,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("site")
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	s.tmpl = tmpl

	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	s.static = http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	return s, nil
}

// Register builds a Site over src and attaches its routes to mux.
func Register(ctx context.Context, mux *http.ServeMux, src ReportSource, opts ...Option) error {
	if mux == nil {
		panic("mux is nil")
	}
	s, err := New(src, opts...)
	if err != nil {
		return err
	}
	s.Register(ctx, mux)
	return nil
}

// Register attaches the page routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleLanding)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/results", s.handleResults)
	mux.Handle("/static/", s.static)
}

type page struct {
	Title string
}

type landingPage struct {
	page
	Stats        []stat
	Features     []feature
	Steps        []step
	Testimonials []testimonial
}

type uploadPage struct {
	page
	MaxFileSize  int64
	Accept       string
	PollInterval int64
}

type resultsPage struct {
	page
	JobID  string
	Sample bool
	Report *model.ScoreReport
}

func (s *Site) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !readable(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "index.html", landingPage{
		page:         page{Title: "ResumeScore"},
		Stats:        landingStats,
		Features:     landingFeatures,
		Steps:        landingSteps,
		Testimonials: landingTestimonials,
	})
}

func (s *Site) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !readable(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "upload.html", uploadPage{
		page:         page{Title: "Upload Your Resume"},
		MaxFileSize:  intake.MaxFileSize,
		Accept:       ".pdf,.docx," + intake.MIMEPDF + "," + intake.MIMEDOCX,
		PollInterval: s.pollInterval.Milliseconds(),
	})
}

// handleResults renders the report of ?job=<id>. Without a job the sample
// report is shown. Unknown or unfinished jobs render without a report.
func (s *Site) handleResults(w http.ResponseWriter, r *http.Request) {
	if !readable(w, r) {
		return
	}
	data := resultsPage{page: page{Title: "Your Resume Score"}}

	id := r.URL.Query().Get("job")
	if id == "" {
		sample := s.src.SampleReport()
		data.Sample = true
		data.Report = &sample
		s.render(w, r, http.StatusOK, "results.html", data)
		return
	}

	data.JobID = id
	job, err := s.src.Job(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.render(w, r, http.StatusNotFound, "results.html", data)
		return
	case err != nil:
		s.logger.Warn(r.Context(), "results lookup failed", logger.String("job_id", id), logger.Error(err))
		s.render(w, r, http.StatusServiceUnavailable, "results.html", data)
		return
	}
	if job.State == model.JobComplete {
		data.Report = job.Report
	}
	s.render(w, r, http.StatusOK, "results.html", data)
}

// render executes into a buffer so a failing template never leaves a
// half-written page.
func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error(r.Context(), "template render failed",
			logger.String("template", name),
			logger.Error(fmt.Errorf("%w: %w", ErrServe, err)),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func readable(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return false
	}
	return true
}
