package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// runWizard runs the interactive configuration wizard.
	runWizard = config.RunWizard

	// writeFile writes data to a file.
	writeFile = os.WriteFile
)

// Init runs the configuration wizard and writes the result to a file.
func Init(_ context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	printWelcome()

	result, err := runWizard()
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := result.BuildConfig()
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := writeFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("stagehand - per-PR staging environments on Hetzner Cloud")
	fmt.Println("========================================================")
	fmt.Println()
	fmt.Println("This wizard creates a project configuration with sensible defaults.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Project Summary")
	fmt.Println("---------------")
	fmt.Printf("  Repository:   %s\n", cfg.Repository.FullName())
	fmt.Printf("  Base image:   %s\n", cfg.Image.Base)
	fmt.Printf("  Server type:  %s in %s\n", cfg.Environment.ServerType, cfg.Environment.Location)
	fmt.Printf("  State bucket: %s\n", cfg.State.Bucket)
	if cfg.Environment.BaseDomain != "" {
		fmt.Printf("  Base domain:  %s\n", cfg.Environment.BaseDomain)
	}
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Export your credentials:")
	fmt.Println("     export HCLOUD_TOKEN=<token>")
	fmt.Println("     export GITHUB_TOKEN=<token>")
	fmt.Println("     export STAGEHAND_STATE_ACCESS_KEY=<key>")
	fmt.Println("     export STAGEHAND_STATE_SECRET_KEY=<secret>")
	fmt.Println()
	fmt.Println("  2. Check the setup:")
	fmt.Println("     stagehand doctor")
	fmt.Println()
	fmt.Println("  3. Build a golden image:")
	fmt.Println("     stagehand image build --script provision.sh")
	fmt.Println()
	fmt.Println("  4. Deploy a pull request:")
	fmt.Println("     stagehand deploy --pr <number>")
	fmt.Println()
}
