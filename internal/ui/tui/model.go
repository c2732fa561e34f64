package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stagehand-dev/stagehand/internal/ui/benchmarks"
)

// RunPhase represents one pipeline phase or doctor check for display.
type RunPhase struct {
	Name      string
	Key       string
	Done      bool
	Active    bool
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	// Run info
	Repository  string
	PullRequest int

	// Phase checklist
	Phases []RunPhase

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool

	// Mode
	Mode string // "run", "doctor"

	result    *RunResultMsg
	completed map[string]time.Duration
}

// NewRunModel creates a model for the deploy command dashboard.
func NewRunModel(repository string, prNumber int) Model {
	return Model{
		Repository:       repository,
		PullRequest:      prNumber,
		StartTime:        time.Now(),
		Mode:             "run",
		PerformanceScale: 1.0,
		completed:        make(map[string]time.Duration),
		Phases: []RunPhase{
			{Name: "Validate pull request", Key: "validate"},
			{Name: "Render definition", Key: "render"},
			{Name: "Terraform plan", Key: "plan"},
			{Name: "Terraform apply", Key: "apply"},
			{Name: "Persist definition", Key: "persist"},
			{Name: "Deploy application", Key: "deploy"},
			{Name: "Report status", Key: "report"},
		},
	}
}

// NewDoctorModel creates a model for the doctor command dashboard.
func NewDoctorModel(checks []RunPhase) Model {
	return Model{
		StartTime:        time.Now(),
		Mode:             "doctor",
		PerformanceScale: 1.0,
		completed:        make(map[string]time.Duration),
		Phases:           checks,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case PhaseMsg:
		// A failed phase does not end the dashboard: the pipeline still
		// reports the failure before the run finishes.
		m.updatePhase(msg)

	case RunResultMsg:
		m.result = &msg
		m.Err = msg.Err
		m.Done = msg.Err == nil
		return m, tea.Quit

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updatePhase(msg PhaseMsg) {
	idx := -1
	for i, phase := range m.Phases {
		if phase.Key == msg.Phase {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	// Earlier phases are no longer running, whatever message got lost.
	for i := 0; i < idx; i++ {
		m.Phases[i].Active = false
	}

	if msg.Done {
		m.Phases[idx].Done = true
		m.Phases[idx].Active = false
		if !m.Phases[idx].StartedAt.IsZero() {
			m.Phases[idx].Duration = time.Since(m.Phases[idx].StartedAt)
			if m.completed == nil {
				m.completed = make(map[string]time.Duration)
			}
			m.completed[msg.Phase] = m.Phases[idx].Duration
		}
	} else {
		m.Phases[idx].Active = true
		if m.Phases[idx].StartedAt.IsZero() {
			m.Phases[idx].StartedAt = time.Now()
		}
	}

	if msg.Err != nil {
		m.Phases[idx].Err = msg.Err
		m.Phases[idx].Active = false
	}
}

func (m *Model) updateETA() {
	if m.Mode != "run" || m.Done {
		m.EstimatedRemaining = 0
		return
	}

	current := ""
	var phaseElapsed time.Duration
	for _, phase := range m.Phases {
		if phase.Active {
			current = phase.Key
			phaseElapsed = time.Since(phase.StartedAt)
			break
		}
	}
	if current == "" {
		m.EstimatedRemaining = 0
		return
	}

	m.PerformanceScale = benchmarks.PerformanceScale(current, phaseElapsed, m.completed)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(current, phaseElapsed, m.completed, m.PerformanceScale)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
