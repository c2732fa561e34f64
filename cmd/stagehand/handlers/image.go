package handlers

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/imagebuild"
	"github.com/stagehand-dev/stagehand/internal/metrics"
	"github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
)

// ImageBuilder interface for testing - matches imagebuild.Builder.
type ImageBuilder interface {
	Build(ctx context.Context, spec imagebuild.BuildSpec) (string, error)
}

// Factory function variables for image - can be replaced in tests.
var (
	// newImageBuilder creates a new image builder.
	newImageBuilder = func(client hcloud.InfrastructureManager, log logr.Logger) ImageBuilder {
		return imagebuild.NewBuilder(client,
			imagebuild.WithLogger(log),
			imagebuild.WithOutput(os.Stdout))
	}
)

// BuildImage builds a golden image from the configured base image and
// provisioning script.
//
// The build provisions a throwaway server, runs the script on it over SSH,
// powers it off, snapshots it and cleans up the build resources. A non-zero
// script exit aborts the build, leaves no image and is never retried.
//
// The resulting snapshot is labeled so rendered environment definitions can
// pick it up, and pipeline runs without a pinned image use the newest one.
func BuildImage(ctx context.Context, configPath, script string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	creds := loadCredentials()
	if err := creds.Require(config.CredentialHCloud); err != nil {
		return err
	}

	if script == "" {
		script = cfg.Image.Script
	}
	if script == "" {
		return fmt.Errorf("no provisioning script configured; set image.script or pass --script")
	}

	log := newLogger()
	client, err := newInfraClient(creds.HCloudToken, log)
	if err != nil {
		return err
	}
	builder := newImageBuilder(client, log)

	fmt.Printf("Building image %s-* from %s in %s...\n", cfg.Image.Prefix, cfg.Image.Base, cfg.Image.Location)

	started := time.Now()
	snapshotID, err := builder.Build(ctx, imagebuild.BuildSpec{
		BaseImage:  cfg.Image.Base,
		ServerType: cfg.Image.ServerType,
		Location:   cfg.Image.Location,
		Script:     script,
		NamePrefix: cfg.Image.Prefix,
	})
	if err != nil {
		metrics.RecordImageBuild("failed", time.Since(started).Seconds())
		return fmt.Errorf("build failed: %w", err)
	}
	metrics.RecordImageBuild("succeeded", time.Since(started).Seconds())

	fmt.Printf("Image built successfully! Snapshot ID: %s\n", snapshotID)
	return nil
}

// ListImages prints every managed golden image, newest first.
func ListImages(ctx context.Context) error {
	creds := loadCredentials()
	if err := creds.Require(config.CredentialHCloud); err != nil {
		return err
	}

	client, err := newInfraClient(creds.HCloudToken, newLogger())
	if err != nil {
		return err
	}

	images, err := client.ListSnapshots(ctx, map[string]string{
		labels.KeyManagedBy: labels.ManagedByStagehand,
		labels.KeyKind:      labels.KindGoldenImage,
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	if len(images) == 0 {
		fmt.Println("No golden images found. Build one with 'stagehand image build'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tARCH\tBASE\tCREATED")
	for _, img := range images {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			img.ID,
			img.Description,
			img.Architecture,
			img.Labels[labels.KeyBaseImage],
			img.Created.Format(time.RFC3339),
		)
	}
	return w.Flush()
}
