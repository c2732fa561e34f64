package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/deploy"
	"github.com/stagehand-dev/stagehand/internal/metrics"
	"github.com/stagehand-dev/stagehand/internal/pipeline"
	"github.com/stagehand-dev/stagehand/internal/ui/tui"
)

// DeployOptions carries the deploy command's flags.
type DeployOptions struct {
	// ConfigPath is the stagehand.yaml location, empty for the default.
	ConfigPath string

	// PullRequest is the number of the pull request to deploy.
	PullRequest int

	// DebugOnFailure offers an interactive SSH session when the deploy
	// step fails.
	DebugOnFailure bool

	// NoInput disables the dashboard and every prompt.
	NoInput bool
}

// pipelineRunner matches pipeline.Pipeline for testing.
type pipelineRunner interface {
	Run(ctx context.Context, prNumber int) (*pipeline.Run, error)
}

// Factory function variables for deploy - can be replaced in tests.
var (
	// newPipeline assembles the pipeline from its dependencies.
	newPipeline = func(deps pipeline.Deps, opts ...pipeline.Option) (pipelineRunner, error) {
		return pipeline.NewPipeline(deps, opts...)
	}

	// runPipelineTUI runs a pipeline start function behind the dashboard.
	runPipelineTUI = tui.RunPipeline

	// confirmDebugSession asks whether to open the debug shell.
	confirmDebugSession = func(address string) (bool, error) {
		open := true
		err := huh.NewConfirm().
			Title("Deploy failed").
			Description(fmt.Sprintf("Open an SSH session on %s for manual diagnosis?", address)).
			Affirmative("Open session").
			Negative("Skip").
			Value(&open).
			Run()
		return open, err
	}

	// pushMetrics ships run metrics to a Pushgateway.
	pushMetrics = metrics.Push
)

// Deploy runs the ephemeral deployment pipeline for one pull request.
//
// The pipeline validates the pull request against the configured
// repository, renders a per-PR environment definition, plans and applies
// the combined definitions, persists the new definition to the state store,
// syncs the pull request's application subtree to the instance and restarts
// the application, then posts the outcome on the pull request.
//
// A failed terraform plan still produces a status comment before the run
// fails. Apply and deploy failures are fatal and never retried; with
// --debug-on-failure a failed deploy offers an interactive SSH session on
// the instance.
func Deploy(ctx context.Context, opts DeployOptions) error {
	if opts.PullRequest <= 0 {
		return fmt.Errorf("--pr must be a positive pull request number, got %d", opts.PullRequest)
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	creds := loadCredentials()
	if err := creds.Require(config.CredentialHCloud, config.CredentialGitHub, config.CredentialState); err != nil {
		return err
	}
	if err := checkDefaultPrereqs().Error(); err != nil {
		return err
	}

	log := newLogger()
	useTUI := !opts.NoInput && isInteractiveTTY()

	// Terraform output corrupts the dashboard's alternate screen, so it
	// only streams in plain mode.
	var tfOut io.Writer = os.Stderr
	if useTUI {
		tfOut = io.Discard
	}

	deployer, deps, err := buildDeps(cfg, creds, log, tfOut)
	if err != nil {
		return err
	}

	attr := attributionFromEnv()
	var run *pipeline.Run
	var runErr error
	if useTUI {
		run, runErr = runPipelineTUI(ctx, cfg.Repository.FullName(), opts.PullRequest,
			func(ctx context.Context, obs pipeline.Observer) (*pipeline.Run, error) {
				p, err := newPipeline(deps,
					pipeline.WithLogger(log),
					pipeline.WithAttribution(attr),
					pipeline.WithObserver(obs))
				if err != nil {
					return nil, err
				}
				return p.Run(ctx, opts.PullRequest)
			})
	} else {
		p, err := newPipeline(deps, pipeline.WithLogger(log), pipeline.WithAttribution(attr))
		if err != nil {
			return err
		}
		run, runErr = p.Run(ctx, opts.PullRequest)
	}

	if err := pushMetrics(os.Getenv("STAGEHAND_PUSHGATEWAY"), "stagehand"); err != nil {
		log.Error(err, "failed to push metrics")
	}

	if runErr == nil {
		fmt.Printf("\nEnvironment for PR #%d is live: http://%s\n", opts.PullRequest, run.Address)
		return nil
	}

	maybeDebugSession(ctx, deployer, opts, run, runErr, log)
	return runErr
}

// buildDeps wires every capability a pipeline run needs. The deployer is
// also returned separately for the post-failure debug session.
func buildDeps(cfg *config.Config, creds *config.Credentials, log logr.Logger, tfOut io.Writer) (appDeployer, pipeline.Deps, error) {
	host, err := newCodeHost(creds.GitHubToken, cfg.Repository.FullName())
	if err != nil {
		return nil, pipeline.Deps{}, err
	}
	infra, err := newInfraClient(creds.HCloudToken, log)
	if err != nil {
		return nil, pipeline.Deps{}, err
	}
	store, err := newStore(cfg.State, creds.StateAccessKey, creds.StateSecretKey, log)
	if err != nil {
		return nil, pipeline.Deps{}, err
	}
	eval, err := newEvaluator(cfg.Environment.DefinitionsDir, log, tfOut)
	if err != nil {
		return nil, pipeline.Deps{}, err
	}
	deployer, err := newDeployer(host, cfg.Deploy, cfg.Repository, log)
	if err != nil {
		return nil, pipeline.Deps{}, err
	}

	return deployer, pipeline.Deps{
		Config:    cfg,
		Pulls:     host,
		Comments:  host,
		Images:    infra,
		Store:     store,
		Evaluator: eval,
		Deployer:  deployer,
	}, nil
}

// maybeDebugSession offers the interactive remote session after a failed
// deploy step. Only deploy failures qualify: earlier failures leave no
// instance worth inspecting.
func maybeDebugSession(ctx context.Context, deployer appDeployer, opts DeployOptions, run *pipeline.Run, runErr error, log logr.Logger) {
	if !opts.DebugOnFailure || opts.NoInput || !isInteractiveTTY() {
		return
	}
	if !errors.Is(runErr, deploy.ErrDeploymentFailure) && !errors.Is(runErr, deploy.ErrDeploymentTimeout) {
		return
	}
	if run == nil || run.Address == "" {
		return
	}

	open, err := confirmDebugSession(run.Address)
	if err != nil || !open {
		return
	}
	if err := deployer.DebugSession(ctx, deploy.Target{Address: run.Address, Ref: run.Branch}); err != nil {
		log.Error(err, "debug session ended with error", "address", run.Address)
	}
}
