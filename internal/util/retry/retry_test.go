package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithExponentialBackoff_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithExponentialBackoff_RecoversAfterFailures(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithInitialDelay(5*time.Millisecond))
	if err != nil {
		t.Fatalf("expected recovery, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithExponentialBackoff_ExhaustsBudget(t *testing.T) {
	t.Parallel()
	attempts := 0
	base := errors.New("persistent")
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return base
	}, WithMaxRetries(3), WithInitialDelay(5*time.Millisecond))
	if err == nil {
		t.Fatal("expected error after budget exhausted")
	}
	if !errors.Is(err, base) {
		t.Errorf("expected last error in chain, got: %v", err)
	}
	// first attempt plus three retries
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		return errors.New("never succeeds")
	}, WithInitialDelay(5*time.Millisecond))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestWithExponentialBackoff_FatalStopsRetrying(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(errors.New("broken"))
	}, WithInitialDelay(5*time.Millisecond))

	if err == nil {
		t.Fatal("expected error")
	}
	if !IsFatal(err) {
		t.Errorf("expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for fatal error, got %d", attempts)
	}
}

func TestWithExponentialBackoff_DelayGrowsAndCaps(t *testing.T) {
	t.Parallel()
	attempts := 0
	var gaps []time.Duration
	last := time.Now()

	_ = WithExponentialBackoff(context.Background(), func() error {
		now := time.Now()
		if attempts > 0 {
			gaps = append(gaps, now.Sub(last))
		}
		last = now
		attempts++
		if attempts < 4 {
			return errors.New("again")
		}
		return nil
	}, WithInitialDelay(20*time.Millisecond), WithMaxDelay(40*time.Millisecond), WithMultiplier(2.0))

	if len(gaps) != 3 {
		t.Fatalf("expected 3 gaps, got %d", len(gaps))
	}
	// 20ms, 40ms, 40ms (capped); allow generous scheduling slack
	if gaps[1] < gaps[0] {
		t.Errorf("expected growing delay, got %v then %v", gaps[0], gaps[1])
	}
	if gaps[2] > 40*time.Millisecond+25*time.Millisecond {
		t.Errorf("expected capped delay, got %v", gaps[2])
	}
}

func TestFatal_NilStaysNil(t *testing.T) {
	t.Parallel()
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should be nil")
	}
}

func TestIsFatal_TraversesWrapping(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("sentinel")
	wrapped := fmt.Errorf("context: %w", Fatal(sentinel))

	if !IsFatal(wrapped) {
		t.Error("IsFatal should see through fmt.Errorf wrapping")
	}
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should reach the sentinel through FatalError")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain errors are not fatal")
	}
}
