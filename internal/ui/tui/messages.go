// Package tui provides a Bubble Tea-based terminal dashboard for pipeline
// runs and doctor checks.
package tui

import "github.com/stagehand-dev/stagehand/internal/pipeline"

// PhaseMsg reports progress of one pipeline phase or doctor check.
type PhaseMsg struct {
	Phase string
	Done  bool
	Err   error
}

// RunResultMsg carries the finished pipeline run.
type RunResultMsg struct {
	Run *pipeline.Run
	Err error
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the operation is complete.
type DoneMsg struct{}
