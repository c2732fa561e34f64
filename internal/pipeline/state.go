package pipeline

import (
	"time"

	"github.com/stagehand-dev/stagehand/internal/envdef"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
)

// State identifies how far a pipeline run has progressed. States are
// milestones, not activities: a run enters a state when the corresponding
// step completes.
type State string

const (
	// StateValidating is the initial state of every run.
	StateValidating State = "validating"

	// StateResourceFileCreated means the per-PR definition file exists in
	// the working directory, alongside the shared definitions.
	StateResourceFileCreated State = "resource_file_created"

	// StatePlanned means terraform plan ran and succeeded.
	StatePlanned State = "planned"

	// StateApplied means terraform apply converged the environment.
	StateApplied State = "applied"

	// StateDeployed means the application is synced and restarted.
	StateDeployed State = "deployed"

	// StateReported means the status comment reached the pull request.
	// Success runs end here.
	StateReported State = "reported"

	// StateFailed is the terminal state of failed runs. It is entered
	// after Reported whenever a failure could still be reported.
	StateFailed State = "failed"
)

// Transition records when a run entered a state.
type Transition struct {
	State State
	At    time.Time
}

// Run records one pipeline invocation end to end.
type Run struct {
	// ID is a sortable unique identifier for the run.
	ID string

	// PullRequest is the number the run was triggered with.
	PullRequest int

	// Branch is the pull request's head branch, known after validation.
	Branch string

	// Definition is the rendered environment, known after rendering.
	Definition *envdef.Definition

	// PlanResult carries the plan outcome, failed or not.
	PlanResult *evaluator.PlanResult

	// Address is the environment's reachable address, known after apply.
	Address string

	// Comment is the status comment body posted to the pull request.
	Comment string

	// Transitions lists every state the run entered, in order.
	Transitions []Transition

	// Err is the failure that ended the run, nil for success.
	Err error
}

func (r *Run) advance(s State, at time.Time) {
	r.Transitions = append(r.Transitions, Transition{State: s, At: at})
}

// State returns the state the run is currently in.
func (r *Run) State() State {
	if len(r.Transitions) == 0 {
		return ""
	}
	return r.Transitions[len(r.Transitions)-1].State
}

// Environment returns the environment name, or "" before rendering.
func (r *Run) Environment() string {
	if r.Definition == nil {
		return ""
	}
	return r.Definition.Name
}

// Outcome returns the run's metrics label.
func (r *Run) Outcome() string {
	if r.Err != nil {
		return "failed"
	}
	return "succeeded"
}
