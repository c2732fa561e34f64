package commands

import (
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/cmd/stagehand/handlers"
)

// Env returns the parent command for working with environment definitions
// outside of a pipeline run.
func Env() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environment definitions",
	}

	cmd.AddCommand(EnvPlan())
	cmd.AddCommand(EnvApply())
	cmd.AddCommand(EnvList())
	cmd.AddCommand(EnvDestroy())

	return cmd
}

// EnvPlan returns the command previewing environment convergence.
//
// Plan pulls the pipeline-generated definitions from the state store into
// the definitions directory, then runs terraform plan. It never changes
// remote state.
func EnvPlan() *cobra.Command {
	var (
		configPath string
		envName    string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview changes to the environments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.EnvPlan(cmd.Context(), configPath, envName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")
	cmd.Flags().StringVar(&envName, "env", "", "Restrict the plan to one environment (e.g. staging_PR_42)")

	return cmd
}

// EnvApply returns the command converging the environments.
//
// Apply is idempotent: re-applying already-converged definitions performs
// no changes.
func EnvApply() *cobra.Command {
	var (
		configPath string
		envName    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge the environments to their definitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.EnvApply(cmd.Context(), configPath, envName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")
	cmd.Flags().StringVar(&envName, "env", "", "Restrict the apply to one environment (e.g. staging_PR_42)")

	return cmd
}

// EnvList returns the command listing definitions in the state store.
func EnvList() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List environment definitions in the state store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.EnvList(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")

	return cmd
}

// EnvDestroy returns the command tearing down one pull request environment.
//
// Ephemeral environments are never garbage-collected; this is the explicit
// out-of-band teardown. It destroys the instance, removes the definition
// from the state store and sweeps leftover labeled resources.
//
// Required flags:
//
//	--pr: pull request number whose environment gets destroyed
func EnvDestroy() *cobra.Command {
	var (
		configPath string
		prNumber   int
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a pull request's staging environment",
		Long: `Destroy the staging environment of one pull request.

This removes the instance via terraform destroy, deletes the generated
definition file from the state store and sweeps any leftover resources
labeled with the pull request number.

Example:
  stagehand env destroy --pr 42

WARNING: This operation is irreversible.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.EnvDestroy(cmd.Context(), configPath, prNumber)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")
	cmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number whose environment gets destroyed")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}
