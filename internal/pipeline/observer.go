package pipeline

import (
	"time"

	"github.com/go-logr/logr"
)

// EventType classifies pipeline observer events.
type EventType string

const (
	// EventRunStarted is emitted once, before the first phase.
	EventRunStarted EventType = "run.started"

	// EventPhaseStarted is emitted when a phase begins.
	EventPhaseStarted EventType = "phase.started"

	// EventPhaseCompleted is emitted when a phase succeeds.
	EventPhaseCompleted EventType = "phase.completed"

	// EventPhaseFailed is emitted when a phase fails.
	EventPhaseFailed EventType = "phase.failed"

	// EventRunFinished is emitted once, after the terminal state.
	EventRunFinished EventType = "run.finished"
)

// Event is one observable pipeline occurrence.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// Observer receives pipeline events as they happen. The pipeline blocks on
// Event, so implementations must return quickly.
type Observer interface {
	Event(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Event implements Observer.
func (f ObserverFunc) Event(e Event) { f(e) }

// LogObserver writes every event through a logr.Logger.
func LogObserver(log logr.Logger) Observer {
	return ObserverFunc(func(e Event) {
		kv := []any{"type", string(e.Type)}
		if e.Phase != "" {
			kv = append(kv, "phase", e.Phase)
		}
		for k, v := range e.Fields {
			kv = append(kv, k, v)
		}
		if e.Type == EventPhaseFailed {
			log.Info("phase failed: "+e.Message, kv...)
			return
		}
		log.Info(e.Message, kv...)
	})
}
