// Package report defines the contract for producing a Score Report from an
// accepted candidate file, plus the sample analyzer used until a real
// engine exists.
package report

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/resumescore/internal/domain/model"
)

// Score thresholds shared by labels and tones.
const (
	excellentThreshold = 80
	goodThreshold      = 60
	maxScoreValue      = 100
	defaultRandomSeed  = 42
)

// Category statuses rendered by the results view.
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusWarning   = "warning"
)

// Label maps an overall score to its headline.
func Label(score int) string {
	switch {
	case score >= excellentThreshold:
		return "Excellent"
	case score >= goodThreshold:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// Tone maps a score to the colour family used to render it.
func Tone(score int) string {
	switch {
	case score >= excellentThreshold:
		return "success"
	case score >= goodThreshold:
		return "warning"
	default:
		return "destructive"
	}
}

// Analyzer produces a Score Report for a candidate file that passed intake.
type Analyzer interface {
	// Analyze honors ctx for cancellation.
	Analyze(ctx context.Context, f model.CandidateFile) (model.ScoreReport, error)
}

// Option applies a configuration option to the SampleAnalyzer.
type Option func(*SampleAnalyzer)

// WithLatencyRange sets the simulated analysis latency.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(a *SampleAnalyzer) {
		if minLatency >= 0 && maxLatency >= minLatency {
			a.minLatency = minLatency
			a.maxLatency = maxLatency
		}
	}
}

// SampleAnalyzer returns the fixed sample report regardless of the file.
type SampleAnalyzer struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampleAnalyzer creates a sample analyzer. Without options it answers
// immediately.
func NewSampleAnalyzer(opts ...Option) *SampleAnalyzer {
	a := &SampleAnalyzer{
		rng: rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic latency for reproducible runs
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze implements Analyzer.
func (a *SampleAnalyzer) Analyze(ctx context.Context, _ model.CandidateFile) (model.ScoreReport, error) {
	if d := a.latency(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.ScoreReport{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return model.ScoreReport{}, fmt.Errorf("context cancelled: %w", err)
	}
	return Sample(), nil
}

func (a *SampleAnalyzer) latency() time.Duration {
	if a.maxLatency <= a.minLatency {
		return a.minLatency
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.minLatency + time.Duration(a.rng.Int63n(int64(a.maxLatency-a.minLatency)))
}

// Sample returns a fresh copy of the sample report.
func Sample() model.ScoreReport {
	return Build(78, []model.Category{
		{
			Name:     "Format & Structure",
			Score:    85,
			Status:   StatusExcellent,
			Feedback: "Your resume has excellent formatting and clear structure. The sections are well-organized and easy to scan.",
		},
		{
			Name:     "Content Quality",
			Score:    72,
			Status:   StatusGood,
			Feedback: "Good content overall, but could benefit from more specific achievements with quantifiable results.",
		},
		{
			Name:     "Keywords & ATS",
			Score:    65,
			Status:   StatusWarning,
			Feedback: "Consider adding more industry-specific keywords to improve ATS compatibility and relevance.",
		},
		{
			Name:     "Experience Section",
			Score:    88,
			Status:   StatusExcellent,
			Feedback: "Excellent work experience section with clear job descriptions and relevant responsibilities.",
		},
	})
}

// Build assembles a report, clamping scores to 0..100 and deriving the
// label, tone and tips.
func Build(overall int, categories []model.Category) model.ScoreReport {
	cats := make([]model.Category, len(categories))
	for i, c := range categories {
		c.Score = clamp(c.Score)
		cats[i] = c
	}
	overall = clamp(overall)
	return model.ScoreReport{
		Overall:    overall,
		Label:      Label(overall),
		Tone:       Tone(overall),
		Categories: cats,
		Tips:       tips(),
	}
}

func tips() []model.TipGroup {
	return []model.TipGroup{
		{
			Title: "Content Enhancement",
			Items: []string{
				"Add quantifiable achievements (numbers, percentages)",
				"Include relevant industry keywords",
				"Tailor content to specific job descriptions",
			},
		},
		{
			Title: "Format Optimization",
			Items: []string{
				"Use consistent formatting throughout",
				"Keep it to 1-2 pages maximum",
				"Use professional fonts and spacing",
			},
		},
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScoreValue {
		return maxScoreValue
	}
	return score
}
