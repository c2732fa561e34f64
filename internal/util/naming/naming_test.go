package naming

import (
	"testing"
	"time"
)

func TestPullRequestNames(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Environment",
			got:      PullRequestEnvironment(42),
			expected: "staging_PR_42",
		},
		{
			name:     "DefinitionFile",
			got:      PullRequestDefinitionFile(42),
			expected: "extra_staging_PR_42.tf",
		},
		{
			name:     "Output",
			got:      PullRequestOutput(42),
			expected: "staging_dns_PR_42",
		},
		{
			name:     "StateKey",
			got:      StateKey(PullRequestDefinitionFile(42)),
			expected: "definitions/extra_staging_PR_42.tf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}

func TestPullRequestNames_DistinctAcrossNumbers(t *testing.T) {
	if PullRequestDefinitionFile(1) == PullRequestDefinitionFile(2) {
		t.Error("definition files for different pull requests must differ")
	}
	if PullRequestOutput(1) == PullRequestOutput(2) {
		t.Error("outputs for different pull requests must differ")
	}
}

func TestHostname(t *testing.T) {
	got := Hostname("staging_PR_42", "a1b2c3d4")
	expected := "staging-pr-42-a1b2c3d4"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestBuildNames(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	if got := Snapshot("app-base", at); got != "app-base-20240301123045" {
		t.Errorf("Snapshot: got %q", got)
	}
	if got := BuildServer("app-base", at); got != "app-base-build-20240301123045" {
		t.Errorf("BuildServer: got %q", got)
	}
	if got := BuildKey("app-base", at); got != "app-base-build-key-20240301123045" {
		t.Errorf("BuildKey: got %q", got)
	}
}
