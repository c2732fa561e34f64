// Package benchmarks provides timing estimates for pipeline phases.
package benchmarks

import "time"

// DefaultTimings are median phase durations from instrumented staging runs
// (seconds).
var DefaultTimings = map[string]int{
	"validate": 2,
	"render":   1,
	"plan":     20,
	"apply":    75,
	"persist":  1,
	"deploy":   45,
	"report":   2,
}

// PhaseOrder defines the pipeline phase sequence for ETA calculation.
var PhaseOrder = []string{
	"validate",
	"render",
	"plan",
	"apply",
	"persist",
	"deploy",
	"report",
}

// EstimateRemaining calculates the estimated time remaining based on the
// current phase, its elapsed time, and the durations of completed phases.
func EstimateRemaining(currentPhase string, phaseElapsed time.Duration, completed map[string]time.Duration) time.Duration {
	return EstimateRemainingWithScale(currentPhase, phaseElapsed, completed, PerformanceScale(currentPhase, phaseElapsed, completed))
}

// EstimateRemainingWithScale calculates ETA while applying a performance
// scale factor.
func EstimateRemainingWithScale(
	currentPhase string,
	phaseElapsed time.Duration,
	completed map[string]time.Duration,
	scale float64,
) time.Duration {
	var remaining time.Duration

	// Find the index of the current phase
	currentIdx := -1
	for i, p := range PhaseOrder {
		if p == currentPhase {
			currentIdx = i
			break
		}
	}
	if currentIdx < 0 {
		return 0
	}

	// For the current phase: max(0, expected - elapsed)
	if expected, ok := DefaultTimings[currentPhase]; ok {
		expectedDur := time.Duration(expected) * time.Second
		expectedDur = time.Duration(float64(expectedDur) * scale)
		if expectedDur > phaseElapsed {
			remaining += expectedDur - phaseElapsed
		}
	}

	// For future phases: use DefaultTimings unless they already completed
	for i := currentIdx + 1; i < len(PhaseOrder); i++ {
		phase := PhaseOrder[i]
		if _, done := completed[phase]; done {
			continue
		}
		if expected, ok := DefaultTimings[phase]; ok {
			expectedDur := time.Duration(expected) * time.Second
			remaining += time.Duration(float64(expectedDur) * scale)
		}
	}

	return remaining
}

// PerformanceScale derives a speed multiplier from observed-vs-expected durations.
// Example: expected 20s, observed 30s => scale=1.5 (future ETAs are stretched by 50%).
func PerformanceScale(currentPhase string, phaseElapsed time.Duration, completed map[string]time.Duration) float64 {
	var expectedTotal time.Duration
	var actualTotal time.Duration

	for phase, actual := range completed {
		expectedSecs, ok := DefaultTimings[phase]
		if !ok {
			continue
		}
		expectedTotal += time.Duration(expectedSecs) * time.Second
		actualTotal += actual
	}

	// If current phase is overrunning, fold it in immediately so ETA adapts quickly.
	if expectedSecs, ok := DefaultTimings[currentPhase]; ok && phaseElapsed > 0 {
		expectedCurrent := time.Duration(expectedSecs) * time.Second
		if phaseElapsed > expectedCurrent {
			expectedTotal += expectedCurrent
			actualTotal += phaseElapsed
		}
	}

	if expectedTotal == 0 || actualTotal == 0 {
		return 1.0
	}

	scale := float64(actualTotal) / float64(expectedTotal)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// PhaseExpectedDuration returns the benchmark duration for a phase.
func PhaseExpectedDuration(phase string) (time.Duration, bool) {
	secs, ok := DefaultTimings[phase]
	if !ok {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// TotalEstimate returns the total estimated pipeline run time.
func TotalEstimate() time.Duration {
	var total time.Duration
	for _, phase := range PhaseOrder {
		if secs, ok := DefaultTimings[phase]; ok {
			total += time.Duration(secs) * time.Second
		}
	}
	return total
}
