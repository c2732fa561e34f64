package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/stagehand-dev/stagehand/internal/envdef"
)

func TestRunState(t *testing.T) {
	t.Parallel()

	run := &Run{}
	assert.Equal(t, State(""), run.State())
	assert.Equal(t, "", run.Environment())
	assert.Equal(t, "succeeded", run.Outcome())

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	run.advance(StateValidating, now)
	run.advance(StateResourceFileCreated, now.Add(time.Second))
	assert.Equal(t, StateResourceFileCreated, run.State())
	assert.Equal(t, []Transition{
		{State: StateValidating, At: now},
		{State: StateResourceFileCreated, At: now.Add(time.Second)},
	}, run.Transitions)

	run.Definition = &envdef.Definition{Name: "staging_PR_42"}
	assert.Equal(t, "staging_PR_42", run.Environment())

	run.Err = errors.New("boom")
	assert.Equal(t, "failed", run.Outcome())
}

func TestLogObserver(t *testing.T) {
	t.Parallel()

	// The discard logger must not panic on any event shape.
	o := LogObserver(logr.Discard())
	o.Event(Event{Type: EventRunStarted, Message: "run started"})
	o.Event(Event{Type: EventPhaseFailed, Phase: "plan", Message: "exit status 1"})
	o.Event(Event{Type: EventPhaseCompleted, Phase: "apply", Fields: map[string]string{"run": "abc"}})
}
