package prerequisites

import (
	"testing"
)

func TestCheck(t *testing.T) {
	// Pick a tool that exists in this environment so the test is portable.
	possibleTools := []string{"sh", "ls", "cat", "bash"}

	var foundTool string
	for _, tool := range possibleTools {
		results := Check([]Tool{{Name: tool, Required: false}})
		if len(results.Results) > 0 && results.Results[0].Found {
			foundTool = tool
			break
		}
	}

	if foundTool == "" {
		t.Skip("no common tools found in PATH, skipping test")
	}

	results := Check([]Tool{
		{
			Name:        foundTool,
			Required:    true,
			Description: "Test tool",
			InstallURL:  "https://example.com",
		},
	})

	if len(results.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results.Results))
	}
	if !results.Results[0].Found {
		t.Errorf("expected %s to be found", foundTool)
	}
	if results.Results[0].Path == "" {
		t.Error("expected path to be set")
	}
	if results.HasErrors() {
		t.Error("expected no errors")
	}
}

func TestCheckMissingRequiredTool(t *testing.T) {
	results := Check([]Tool{
		{
			Name:        "nonexistent-tool-xyz123",
			Required:    true,
			Description: "A tool that does not exist",
			InstallURL:  "https://example.com",
		},
	})

	if len(results.Missing) != 1 {
		t.Errorf("expected 1 missing tool, got %d", len(results.Missing))
	}
	if !results.HasErrors() {
		t.Error("expected HasErrors to be true")
	}
	if results.Error() == nil {
		t.Error("expected Error to return an error")
	}
}

func TestCheckMissingOptionalTool(t *testing.T) {
	results := Check([]Tool{
		{
			Name:        "nonexistent-tool-xyz123",
			Required:    false,
			Description: "An optional tool that does not exist",
			InstallURL:  "https://example.com",
		},
	})

	if len(results.Missing) != 1 {
		t.Errorf("expected 1 missing tool, got %d", len(results.Missing))
	}
	if results.HasErrors() {
		t.Error("expected HasErrors to be false for optional tools")
	}
	if err := results.Error(); err != nil {
		t.Errorf("expected Error to return nil for optional tools, got %v", err)
	}
}

func TestDefaultTools(t *testing.T) {
	tools := DefaultTools()

	found := false
	for _, tool := range tools {
		if tool.Name == "terraform" && tool.Required {
			found = true
		}
	}
	if !found {
		t.Error("expected terraform as a required default tool")
	}
}

func TestOptionalTools(t *testing.T) {
	for _, tool := range OptionalTools() {
		if tool.Required {
			t.Errorf("optional tool %s should have Required = false", tool.Name)
		}
	}
}
