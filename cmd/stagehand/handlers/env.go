package handlers

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
	"github.com/stagehand-dev/stagehand/internal/util/naming"
)

// EnvPlan previews the changes needed to converge the environments.
//
// The pipeline-generated definitions are pulled from the state store into
// the definitions directory first, so the plan covers every currently
// provisioned environment. A non-empty envName restricts the plan to that
// environment's server. Plan never changes remote state.
func EnvPlan(ctx context.Context, configPath, envName string) error {
	store, eval, err := envSetup(configPath)
	if err != nil {
		return err
	}

	if err := syncStoredDefinitions(ctx, store, eval.Workdir()); err != nil {
		return err
	}
	if err := eval.Init(ctx); err != nil {
		return err
	}

	result, err := eval.Plan(ctx, envTargets(envName)...)
	if err != nil {
		return err
	}
	if !result.OK {
		fmt.Fprintln(os.Stderr, result.Detail)
		return fmt.Errorf("plan failed")
	}
	if !result.Changed {
		fmt.Println("No changes. Environments match their definitions.")
		return nil
	}
	fmt.Println(result.Summary)
	return nil
}

// EnvApply converges the environments to their definitions. Re-applying
// already-converged definitions performs no changes. A non-empty envName
// restricts the apply to that environment's server.
func EnvApply(ctx context.Context, configPath, envName string) error {
	store, eval, err := envSetup(configPath)
	if err != nil {
		return err
	}

	if err := syncStoredDefinitions(ctx, store, eval.Workdir()); err != nil {
		return err
	}
	if err := eval.Init(ctx); err != nil {
		return err
	}
	if err := eval.Apply(ctx, envTargets(envName)...); err != nil {
		return err
	}
	fmt.Println("Environments converged.")
	return nil
}

// envTargets maps an environment name to its terraform resource address.
func envTargets(envName string) []string {
	if envName == "" {
		return nil
	}
	return []string{"hcloud_server." + envName}
}

// EnvList prints every definition held in the state store.
func EnvList(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	creds := loadCredentials()
	if err := creds.Require(config.CredentialState); err != nil {
		return err
	}

	store, err := newStore(cfg.State, creds.StateAccessKey, creds.StateSecretKey, newLogger())
	if err != nil {
		return err
	}

	defs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Println("No environment definitions in the state store.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEFINITION\tSIZE\tLAST MODIFIED")
	for _, d := range defs {
		fmt.Fprintf(w, "%s\t%d\t%s\n", d.Name, d.Size, d.LastModified.Format(time.RFC3339))
	}
	return w.Flush()
}

// EnvDestroy tears down one pull request's staging environment.
//
// Ephemeral environments are never garbage-collected, so this is the
// explicit teardown path: terraform destroy targeted at the PR's server,
// removal of the generated definition locally and from the state store,
// and a label-based sweep of anything the pull request left behind.
func EnvDestroy(ctx context.Context, configPath string, prNumber int) error {
	if prNumber <= 0 {
		return fmt.Errorf("--pr must be a positive pull request number, got %d", prNumber)
	}

	store, eval, err := envSetup(configPath)
	if err != nil {
		return err
	}

	envName := naming.PullRequestEnvironment(prNumber)
	fileName := naming.PullRequestDefinitionFile(prNumber)

	if err := syncStoredDefinitions(ctx, store, eval.Workdir()); err != nil {
		return err
	}
	if err := eval.Init(ctx); err != nil {
		return err
	}

	// Targeting the server also takes down dependent resources such as
	// the reverse DNS record.
	if err := eval.Destroy(ctx, "hcloud_server."+envName); err != nil {
		return err
	}

	if err := evaluator.RemoveDefinition(eval.Workdir(), fileName); err != nil {
		return err
	}
	if err := store.Delete(ctx, fileName); err != nil {
		return err
	}

	// Sweep anything still labeled with the pull request number, for
	// example resources left by interrupted runs.
	creds := loadCredentials()
	infra, err := newInfraClient(creds.HCloudToken, newLogger())
	if err != nil {
		return err
	}
	if err := infra.CleanupByLabel(ctx, labels.NewLabelBuilder().WithPullRequest(prNumber).Build()); err != nil {
		return fmt.Errorf("leftover cleanup failed: %w", err)
	}

	fmt.Printf("Environment %s destroyed.\n", envName)
	return nil
}

// envSetup loads the config and wires the store and evaluator the env
// subcommands share.
func envSetup(configPath string) (stateStore, tfEvaluator, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	creds := loadCredentials()
	if err := creds.Require(config.CredentialHCloud, config.CredentialState); err != nil {
		return nil, nil, err
	}
	if err := checkDefaultPrereqs().Error(); err != nil {
		return nil, nil, err
	}

	log := newLogger()
	store, err := newStore(cfg.State, creds.StateAccessKey, creds.StateSecretKey, log)
	if err != nil {
		return nil, nil, err
	}
	eval, err := newEvaluator(cfg.Environment.DefinitionsDir, log, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	return store, eval, nil
}
