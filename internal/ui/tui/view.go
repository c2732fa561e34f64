package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stagehand-dev/stagehand/internal/ui/benchmarks"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	// Header
	renderHeader(&b, m)

	// Progress bar (run mode)
	if m.Mode == "run" {
		renderProgressBar(&b, m)
	}

	// Phase checklist
	renderPhases(&b, m)

	// Errors
	renderErrors(&b, m)

	// Footer
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "stagehand doctor"
	if m.Mode == "run" {
		title = fmt.Sprintf("stagehand: %s #%d", m.Repository, m.PullRequest)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done && m.Mode == "run":
		status += readyStyle.Render("Deployed")
	case m.Done:
		status += readyStyle.Render("OK")
	default:
		if phase := activePhase(m); phase != nil {
			status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render(phase.Name)
		} else {
			status += dimStyle.Render("Starting...")
		}
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderPhases(b *strings.Builder, m Model) {
	section := "  Checks"
	if m.Mode == "run" {
		section = "  Pipeline"
	}
	b.WriteString(sectionStyle.Render(section))
	b.WriteString("\n")

	for _, phase := range m.Phases {
		var icon string
		var style styleFunc
		switch {
		case phase.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case phase.Done:
			icon = checkMark
			style = sf(readyStyle)
		case phase.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}

		extra := ""
		switch {
		case phase.Done && phase.Duration > 0:
			extra = dimStyle.Render(formatDuration(phase.Duration))
		case phase.Active:
			extra = phaseMiniBar(m, phase)
		}

		fmt.Fprintf(b, "    %s %-24s %s\n", style(icon), style(phase.Name), extra)
	}
}

func phaseMiniBar(m Model, phase RunPhase) string {
	expected, ok := benchmarks.PhaseExpectedDuration(phase.Key)
	if !ok || phase.StartedAt.IsZero() {
		return ""
	}
	if m.PerformanceScale > 0 {
		expected = time.Duration(float64(expected) * m.PerformanceScale)
	}
	progress := float64(time.Since(phase.StartedAt)) / float64(expected)
	return miniBar(progress)
}

func renderErrors(b *strings.Builder, m Model) {
	var failed []RunPhase
	for _, phase := range m.Phases {
		if phase.Err != nil {
			failed = append(failed, phase)
		}
	}
	if len(failed) == 0 {
		return
	}

	b.WriteString(sectionStyle.Render("  Errors"))
	b.WriteString("\n")

	for _, phase := range failed {
		msg := phase.Err.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		if len(msg) > 120 {
			msg = msg[:120] + "..."
		}
		fmt.Fprintf(b, "    %s [%s] %s\n",
			failedStyle.Render(crossMark), phase.Key, dimStyle.Render(msg))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	pulse := ""
	if !m.Done && m.Err == nil {
		pulse = "  |  " + currentSpinner(m.SpinnerFrame) + " running"
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s%s  |  q: quit", elapsed, pulse)))
	b.WriteString("\n")
}

// Helper functions

func activePhase(m Model) *RunPhase {
	for i := range m.Phases {
		if m.Phases[i].Active {
			return &m.Phases[i]
		}
	}
	return nil
}

func currentSpinner(frame int) string {
	if len(spinnerFrames) == 0 {
		return spinner
	}
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func miniBar(progress float64) string {
	const width = 10
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * width)
	if filled > width {
		filled = width
	}
	return progressBarFull.Render(strings.Repeat("█", filled)) + progressBarEmpty.Render(strings.Repeat("░", width-filled))
}

func calculateProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}
	if len(m.Phases) == 0 {
		return 0
	}

	// Weight phases by their expected duration so the bar does not crawl
	// through the fast phases and stall on apply.
	var total, done float64
	for _, phase := range m.Phases {
		weight := 1.0
		if secs, ok := benchmarks.DefaultTimings[phase.Key]; ok {
			weight = float64(secs)
		}
		total += weight
		if phase.Done {
			done += weight
		}
	}
	if total == 0 {
		return 0
	}

	progress := done / total
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
