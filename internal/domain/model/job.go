// Package model contains domain models passed between layers.
package model

import "time"

// CandidateFile is the metadata of a document submitted for intake.
// The bytes are never retained.
type CandidateFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"type"`
}

// JobState is the lifecycle state of a processing job.
type JobState string

// Job states. Values match the progress state machine identifiers.
const (
	JobIdle     JobState = "idle"
	JobRunning  JobState = "running"
	JobComplete JobState = "complete"
	JobFailed   JobState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// Job tracks one accepted candidate file through processing.
type Job struct {
	ID        string        `json:"id"`
	SessionID string        `json:"-"`
	File      CandidateFile `json:"file"`
	State     JobState      `json:"state"`
	Progress  int           `json:"progress"`
	Error     string        `json:"error,omitempty"`
	Report    *ScoreReport  `json:"report,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ScoreReport is the analysis result for a candidate file.
type ScoreReport struct {
	Overall    int        `json:"overall"`
	Label      string     `json:"label"`
	Tone       string     `json:"tone"`
	Categories []Category `json:"categories"`
	Tips       []TipGroup `json:"tips,omitempty"`
}

// Category is one scored criterion of a report.
type Category struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// TipGroup is a titled list of improvement suggestions.
type TipGroup struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}
