// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/mattn/go-isatty"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/deploy"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
	"github.com/stagehand-dev/stagehand/internal/platform/github"
	"github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/report"
	"github.com/stagehand-dev/stagehand/internal/statestore"
	"github.com/stagehand-dev/stagehand/internal/util/prerequisites"
)

const defaultConfigFile = "stagehand.yaml"

// codeHost is the slice of the GitHub client the handlers wire together.
type codeHost interface {
	github.PullRequestService
	github.IssueCommentService
	github.TarballDownloader
	Ping(ctx context.Context) error
}

// stateStore is the slice of the definition store the handlers wire
// together.
type stateStore interface {
	List(ctx context.Context) ([]statestore.Definition, error)
	Get(ctx context.Context, name string) ([]byte, string, error)
	SaveDefinition(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

// tfEvaluator is the slice of the terraform evaluator the handlers wire
// together.
type tfEvaluator interface {
	Workdir() string
	Init(ctx context.Context) error
	Plan(ctx context.Context, targets ...string) (*evaluator.PlanResult, error)
	Apply(ctx context.Context, targets ...string) error
	Output(ctx context.Context, name string) (string, error)
	Destroy(ctx context.Context, targets ...string) error
}

// appDeployer is the slice of the deployer the handlers wire together.
type appDeployer interface {
	Deploy(ctx context.Context, target deploy.Target) error
	DebugSession(ctx context.Context, target deploy.Target) error
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// loadConfigFile loads config from a file.
	loadConfigFile = config.LoadFile

	// loadCredentials reads secrets from the environment.
	loadCredentials = config.LoadCredentials

	// checkDefaultPrereqs runs prerequisite checks.
	checkDefaultPrereqs = prerequisites.CheckDefault

	// newInfraClient creates a Hetzner Cloud client.
	newInfraClient = func(token string, log logr.Logger) (hcloud.InfrastructureManager, error) {
		return hcloud.NewRealClient(token, hcloud.WithLogger(log))
	}

	// newCodeHost creates a GitHub client for the configured repository.
	newCodeHost = func(token, repository string) (codeHost, error) {
		return github.NewClient(token, repository)
	}

	// newStore creates the definition state store client.
	newStore = func(cfg config.StateConfig, accessKey, secretKey string, log logr.Logger) (stateStore, error) {
		return statestore.NewStore(cfg, accessKey, secretKey, statestore.WithLogger(log))
	}

	// newEvaluator creates a terraform evaluator over the definitions
	// directory, creating the directory first if needed.
	newEvaluator = func(workdir string, log logr.Logger, out io.Writer) (tfEvaluator, error) {
		if err := os.MkdirAll(workdir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create definitions directory: %w", err)
		}
		return evaluator.New(workdir, evaluator.WithLogger(log), evaluator.WithOutput(out))
	}

	// newDeployer creates the application deployer.
	newDeployer = func(source github.TarballDownloader, dcfg config.DeployConfig, repo config.RepositoryConfig, log logr.Logger) (appDeployer, error) {
		return deploy.NewDeployer(source, dcfg, repo, deploy.WithLogger(log))
	}
)

// loadConfig loads and validates the configuration. An empty path means
// stagehand.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = defaultConfigFile
	}
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'stagehand init' to create one", err)
	}
	return cfg, nil
}

// logVerbosity is the funcr verbosity threshold, raised by the root
// command's -v flag.
var logVerbosity int

// SetVerbosity raises the log level for all loggers created afterwards.
// Each -v on the command line adds one level.
func SetVerbosity(v int) {
	logVerbosity = v
}

// newLogger returns the CLI logger: key=value lines on stderr.
func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintln(os.Stderr, prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: logVerbosity})
}

// isInteractiveTTY reports whether stdout is a terminal that can host the
// dashboard and prompts.
func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// attributionFromEnv builds the comment attribution from the CI-populated
// environment, falling back to the local user for manual runs.
func attributionFromEnv() report.Attribution {
	actor := os.Getenv("STAGEHAND_ACTOR")
	if actor == "" {
		actor = os.Getenv("USER")
	}
	if actor == "" {
		actor = "unknown"
	}
	event := os.Getenv("STAGEHAND_EVENT")
	if event == "" {
		event = "manual"
	}
	return report.Attribution{Actor: actor, Event: event}
}

// syncStoredDefinitions pulls the pipeline-generated definition files from
// the state store into the terraform working directory, removing generated
// files the store no longer holds.
func syncStoredDefinitions(ctx context.Context, store stateStore, dir string) error {
	defs, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored definitions: %w", err)
	}
	stored := make(map[string][]byte, len(defs))
	for _, d := range defs {
		data, _, err := store.Get(ctx, d.Name)
		if err != nil {
			return fmt.Errorf("failed to fetch stored definition %s: %w", d.Name, err)
		}
		stored[d.Name] = data
	}
	return evaluator.SyncGenerated(dir, stored)
}
