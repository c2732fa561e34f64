package commands

import (
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/cmd/stagehand/handlers"
)

// Image returns the parent command for managing golden images.
//
// Golden images are Hetzner Cloud snapshots built from a base image plus a
// provisioning script. Rendered environment definitions reference them by
// ID.
func Image() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage golden images",
	}

	cmd.AddCommand(Build())
	cmd.AddCommand(ImageList())

	return cmd
}

// Build returns the command for building a new golden image.
//
// The build boots a throwaway server from the configured base image, runs
// the provisioning script on it over SSH, powers it off and snapshots it.
// The snapshot name embeds the build timestamp. A non-zero script exit
// aborts the build and leaves no image behind.
//
// Optional flags:
//
//	--config, -c: path to stagehand.yaml (default: stagehand.yaml)
//	--script: provisioning script, overriding image.script from the config
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required)
func Build() *cobra.Command {
	var (
		configPath string
		script     string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a new golden image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.BuildImage(cmd.Context(), configPath, script)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: stagehand.yaml)")
	cmd.Flags().StringVar(&script, "script", "", "Provisioning script to run on the build server (default: image.script from the config)")

	return cmd
}

// ImageList returns the command listing managed golden images.
func ImageList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List golden images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ListImages(cmd.Context())
		},
	}
}
