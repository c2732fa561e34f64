package commands

import (
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/cmd/stagehand/handlers"
)

// Doctor returns the command checking that a machine can run pipelines.
//
// It verifies the terraform binary, validates the configuration and probes
// the Hetzner Cloud API, the GitHub API and the state store with the
// credentials from the environment.
//
// Optional flags:
//
//	--config, -c: path to stagehand.yaml (default: stagehand.yaml)
func Doctor() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites, configuration and connectivity",
		Long: `Check that this machine can run stagehand pipelines.

Checks performed:
  - terraform binary on PATH (required)
  - ssh binary on PATH (optional, for manual inspection)
  - configuration file loads and validates
  - credentials present in the environment
  - Hetzner Cloud API reachable and the configured SSH key exists
  - GitHub repository reachable with the configured token
  - state store bucket reachable

Examples:
  stagehand doctor
  stagehand doctor -c configs/stagehand.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")

	return cmd
}
