package hcloud

import (
	"errors"
	"testing"
)

func TestBuildLabelSelector(t *testing.T) {
	tests := []struct {
		name     string
		labels   map[string]string
		expected string
	}{
		{
			name:     "empty map",
			labels:   map[string]string{},
			expected: "",
		},
		{
			name:     "nil map",
			labels:   nil,
			expected: "",
		},
		{
			name:     "single label",
			labels:   map[string]string{"stagehand.dev/kind": "build-server"},
			expected: "stagehand.dev/kind=build-server",
		},
		{
			name: "multiple labels sorted by key",
			labels: map[string]string{
				"stagehand.dev/pull-request": "42",
				"stagehand.dev/managed-by":   "stagehand",
				"stagehand.dev/kind":         "build-key",
			},
			expected: "stagehand.dev/kind=build-key,stagehand.dev/managed-by=stagehand,stagehand.dev/pull-request=42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildLabelSelector(tt.labels); got != tt.expected {
				t.Errorf("buildLabelSelector() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCleanupError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		inner := errors.New("boom")
		ce := &CleanupError{}
		ce.Add(inner)

		if !ce.HasErrors() {
			t.Fatal("expected HasErrors to be true")
		}
		if ce.Error() != "boom" {
			t.Errorf("expected single error message, got %q", ce.Error())
		}
		if !errors.Is(ce, inner) {
			t.Error("expected errors.Is to find the inner error")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")
		ce := &CleanupError{}
		ce.Add(first)
		ce.Add(second)

		if len(ce.Errors) != 2 {
			t.Fatalf("expected 2 errors, got %d", len(ce.Errors))
		}
		if !errors.Is(ce, first) || !errors.Is(ce, second) {
			t.Error("expected errors.Is to find both inner errors")
		}
	})

	t.Run("add nil is a no-op", func(t *testing.T) {
		ce := &CleanupError{}
		ce.Add(nil)
		if ce.HasErrors() {
			t.Error("expected no errors after adding nil")
		}
	})
}
