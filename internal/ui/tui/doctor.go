package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Check is one doctor probe. Checks run sequentially and a failure does not
// stop the remaining checks.
type Check struct {
	Name string
	Key  string
	Run  func(ctx context.Context) error
}

// RunDoctorTUI runs the doctor checks behind the dashboard and returns an
// error when any check failed.
func RunDoctorTUI(ctx context.Context, checks []Check) error {
	m := NewDoctorModel(checkPhases(checks))
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		failed := 0
		for _, check := range checks {
			p.Send(PhaseMsg{Phase: check.Key})
			if err := check.Run(ctx); err != nil {
				failed++
				p.Send(PhaseMsg{Phase: check.Key, Err: err})
				continue
			}
			p.Send(PhaseMsg{Phase: check.Key, Done: true})
		}
		if failed > 0 {
			p.Send(ErrMsg{Err: fmt.Errorf("%d of %d checks failed", failed, len(checks))})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}

	fm := finalModel.(Model)
	return fm.Err
}

// RunChecksPlain runs the checks without the dashboard, printing one line
// per check. Used when stdout is not a terminal.
func RunChecksPlain(ctx context.Context, out io.Writer, checks []Check) error {
	failed := 0
	for _, check := range checks {
		if err := check.Run(ctx); err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", crossMark, check.Name, err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", checkMark, check.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func checkPhases(checks []Check) []RunPhase {
	phases := make([]RunPhase, 0, len(checks))
	for _, check := range checks {
		phases = append(phases, RunPhase{Name: check.Name, Key: check.Key})
	}
	return phases
}
