package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/stagehand-dev/stagehand/internal/config"
	hcloudInternal "github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/ui/tui"
	"github.com/stagehand-dev/stagehand/internal/util/async"
	"github.com/stagehand-dev/stagehand/internal/util/prerequisites"
)

// Factory function variables for doctor - can be replaced in tests.
var (
	// checkAllPrereqs checks required and optional tools.
	checkAllPrereqs = prerequisites.CheckAll

	// runDoctorTUI displays the checks in the dashboard.
	runDoctorTUI = tui.RunDoctorTUI

	// runChecksPlain prints one line per check.
	runChecksPlain = tui.RunChecksPlain
)

// Doctor checks that this machine can run stagehand pipelines: external
// tools on PATH, a loadable configuration, credentials in the environment,
// and reachable Hetzner Cloud, GitHub and state store APIs.
//
// Checks keep running after a failure so one report covers everything;
// Doctor returns an error when any check failed.
func Doctor(ctx context.Context, configPath string) error {
	checks := doctorChecks(configPath)
	if isInteractiveTTY() {
		return runDoctorTUI(ctx, checks)
	}
	return runChecksPlain(ctx, os.Stdout, checks)
}

// doctorChecks builds the check list. Later checks reuse what earlier ones
// loaded; a check whose inputs failed reports itself as skipped.
func doctorChecks(configPath string) []tui.Check {
	var (
		cfg   *config.Config
		creds *config.Credentials
	)

	return []tui.Check{
		{
			Name: "external tools",
			Key:  "tools",
			Run: func(context.Context) error {
				results := checkAllPrereqs()
				if err := results.Error(); err != nil {
					return err
				}
				return nil
			},
		},
		{
			Name: "configuration",
			Key:  "config",
			Run: func(context.Context) error {
				loaded, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
				return nil
			},
		},
		{
			Name: "credentials",
			Key:  "credentials",
			Run: func(context.Context) error {
				loaded := loadCredentials()
				if err := loaded.Require(config.CredentialHCloud, config.CredentialGitHub, config.CredentialState); err != nil {
					return err
				}
				creds = loaded
				return nil
			},
		},
		{
			Name: "API connectivity",
			Key:  "connectivity",
			Run: func(ctx context.Context) error {
				if cfg == nil || creds == nil {
					return errors.New("skipped: configuration or credentials unavailable")
				}
				return probeConnectivity(ctx, cfg, creds)
			},
		},
	}
}

// probeConnectivity probes the three APIs a pipeline run depends on. The
// probes are independent, so they run in parallel; the first failure is
// reported.
func probeConnectivity(ctx context.Context, cfg *config.Config, creds *config.Credentials) error {
	log := newLogger()

	infra, err := newInfraClient(creds.HCloudToken, log)
	if err != nil {
		return err
	}
	host, err := newCodeHost(creds.GitHubToken, cfg.Repository.FullName())
	if err != nil {
		return err
	}
	store, err := newStore(cfg.State, creds.StateAccessKey, creds.StateSecretKey, log)
	if err != nil {
		return err
	}

	return async.RunParallel(ctx, []async.Task{
		{
			Name: "hcloud",
			Func: func(ctx context.Context) error {
				key, err := infra.GetSSHKey(ctx, cfg.Environment.SSHKey)
				if err != nil {
					if hcloudInternal.IsUnauthorized(err) {
						return errors.New("HCLOUD_TOKEN is invalid or expired")
					}
					return err
				}
				if key == nil {
					return fmt.Errorf("SSH key %q not found in the project", cfg.Environment.SSHKey)
				}
				return nil
			},
		},
		{
			Name: "github",
			Func: func(ctx context.Context) error {
				return host.Ping(ctx)
			},
		},
		{
			Name: "state store",
			Func: func(ctx context.Context) error {
				return store.Ping(ctx)
			},
		},
	})
}
