package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stagehand-dev/stagehand/internal/pipeline"
)

// RunPipeline executes one pipeline run behind the dashboard. The start
// function receives the observer feeding the display and runs in a
// background goroutine; quitting the dashboard early cancels its context.
func RunPipeline(
	ctx context.Context,
	repository string,
	prNumber int,
	start func(ctx context.Context, obs pipeline.Observer) (*pipeline.Run, error),
) (*pipeline.Run, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewRunModel(repository, prNumber)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		run, err := start(ctx, PhaseObserver(p.Send))
		p.Send(RunResultMsg{Run: run, Err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("dashboard error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.result == nil {
		// Quit before the run finished. The deferred cancel unwinds it.
		return nil, errors.New("run aborted")
	}
	return fm.result.Run, fm.result.Err
}

// PhaseObserver adapts pipeline events into dashboard messages.
func PhaseObserver(send func(tea.Msg)) pipeline.Observer {
	return pipeline.ObserverFunc(func(e pipeline.Event) {
		switch e.Type {
		case pipeline.EventPhaseStarted:
			send(PhaseMsg{Phase: e.Phase})
		case pipeline.EventPhaseCompleted:
			send(PhaseMsg{Phase: e.Phase, Done: true})
		case pipeline.EventPhaseFailed:
			send(PhaseMsg{Phase: e.Phase, Err: errors.New(e.Message)})
		}
	})
}
