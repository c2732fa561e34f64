package commands

import (
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/cmd/stagehand/handlers"
)

// Deploy returns the command that runs the ephemeral deployment pipeline
// for one pull request.
//
// The pipeline validates the pull request, renders a fresh environment
// definition for it, plans and applies the combined definitions, persists
// the new definition to the state store, deploys the pull request's source
// to the new instance and reports the outcome as a comment on the pull
// request.
//
// Required flags:
//
//	--pr: pull request number (positive integer)
//
// Optional flags:
//
//	--config, -c: path to stagehand.yaml (default: stagehand.yaml)
//	--debug-on-failure: offer an interactive SSH session after a failed deploy
//	--no-input: never prompt; disables the TUI and the debug session offer
//
// Environment variables:
//
//	HCLOUD_TOKEN, GITHUB_TOKEN, STAGEHAND_STATE_ACCESS_KEY,
//	STAGEHAND_STATE_SECRET_KEY (all required)
//	STAGEHAND_ACTOR, STAGEHAND_EVENT (comment attribution, CI-populated)
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision and deploy a staging environment for a pull request",
		Long: `Provision and deploy an ephemeral staging environment for a pull request.

Each pull request gets its own isolated instance: the pipeline generates a
uniquely named environment definition (extra_staging_PR_<n>.tf), converges
it with Terraform, persists it to the shared state store, syncs the pull
request's application subtree to the instance over SSH and restarts the
application and web server.

The outcome - the reachable address, or the plan/apply/deploy failure
detail - is posted back on the pull request.

Examples:
  # Deploy pull request #42
  stagehand deploy --pr 42

  # Deploy and drop into an SSH session if the deploy step fails
  stagehand deploy --pr 42 --debug-on-failure`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.PullRequest, "pr", 0, "Pull request number to deploy")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")
	cmd.Flags().BoolVar(&opts.DebugOnFailure, "debug-on-failure", false, "Open an interactive SSH session when the deploy step fails")
	cmd.Flags().BoolVar(&opts.NoInput, "no-input", false, "Never prompt; plain output only")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}
