package benchmarks

import (
	"testing"
	"time"
)

func TestEstimateRemaining_NoHistory(t *testing.T) {
	// At plan phase, 5s elapsed, nothing completed yet
	remaining := EstimateRemaining("plan", 5*time.Second, nil)

	// Should be: (20-5) + 75 + 1 + 45 + 2 = 138s
	expected := 138 * time.Second
	if remaining != expected {
		t.Errorf("expected %v, got %v", expected, remaining)
	}
}

func TestEstimateRemaining_SlowHistoryScalesUp(t *testing.T) {
	// At apply phase with earlier phases three times over budget (capped at 3x)
	completed := map[string]time.Duration{
		"validate": 6 * time.Second,
		"render":   3 * time.Second,
	}

	remaining := EstimateRemaining("apply", 30*time.Second, completed)

	// Scale = 9s/3s = 3.0: (75*3 - 30) + (1 + 45 + 2)*3 = 339s
	expected := 339 * time.Second
	if remaining != expected {
		t.Errorf("expected %v, got %v", expected, remaining)
	}
}

func TestEstimateRemaining_ElapsedExceedsExpected(t *testing.T) {
	// At plan phase, but already spent 40s (over the 20s estimate)
	remaining := EstimateRemaining("plan", 40*time.Second, nil)

	// Overrun scales future predictions: 40s/20s = 2x
	// Should be: max(0, 40-40)=0 + (75 + 1 + 45 + 2) * 2 = 246s
	expected := 246 * time.Second
	if remaining != expected {
		t.Errorf("expected %v, got %v", expected, remaining)
	}
}

func TestPerformanceScale(t *testing.T) {
	completed := map[string]time.Duration{
		"plan": 30 * time.Second,
	}

	scale := PerformanceScale("apply", 0, completed)
	if scale < 1.49 || scale > 1.51 {
		t.Fatalf("expected ~1.5 scale, got %f", scale)
	}
}

func TestPhaseExpectedDuration(t *testing.T) {
	d, ok := PhaseExpectedDuration("deploy")
	if !ok || d != 45*time.Second {
		t.Fatalf("expected deploy default 45s, got %v (ok=%v)", d, ok)
	}
	_, ok = PhaseExpectedDuration("unknown")
	if ok {
		t.Fatal("expected unknown phase duration to be absent")
	}
}

func TestEstimateRemaining_UnknownPhase(t *testing.T) {
	remaining := EstimateRemaining("unknown", 0, nil)
	if remaining != 0 {
		t.Errorf("expected 0 for unknown phase, got %v", remaining)
	}
}

func TestEstimateRemaining_LastPhase(t *testing.T) {
	// At report phase, 1s elapsed
	remaining := EstimateRemaining("report", time.Second, nil)

	// Should be: max(0, 2-1) = 1s (no future phases)
	expected := time.Second
	if remaining != expected {
		t.Errorf("expected %v, got %v", expected, remaining)
	}
}

func TestTotalEstimate(t *testing.T) {
	total := TotalEstimate()

	// Sum of all phase timings: 2 + 1 + 20 + 75 + 1 + 45 + 2 = 146s
	expected := 146 * time.Second
	if total != expected {
		t.Errorf("expected %v, got %v", expected, total)
	}
}
