// Package main is the entry point for the stagehand CLI.
//
// stagehand provisions ephemeral per-pull-request staging environments on
// Hetzner Cloud. It builds golden machine images, maintains declarative
// environment definitions converged by Terraform, and runs the deployment
// pipeline that gives every pull request its own isolated instance.
//
// Commands: init, deploy, image, env, doctor.
//
// For detailed usage information, run:
//
//	stagehand --help
package main

import (
	"fmt"
	"os"

	"github.com/stagehand-dev/stagehand/cmd/stagehand/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
