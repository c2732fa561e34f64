//go:build e2e

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagehand-dev/stagehand/internal/imagebuild"
	"github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
)

// TestImageBuildLifecycle builds a real golden image on Hetzner Cloud and
// verifies the labeled snapshot is discoverable afterwards. The snapshot
// is deleted unless E2E_KEEP_RESOURCES is set.
func TestImageBuildLifecycle(t *testing.T) {
	token := requireHCloudToken(t)
	cfg := LoadE2EConfig()
	if cfg.SkipImageBuild {
		t.Skip("E2E_SKIP_IMAGE_BUILD set")
	}

	client, err := hcloud.NewRealClient(token)
	if err != nil {
		t.Fatalf("failed to create hcloud client: %v", err)
	}

	script := filepath.Join(t.TempDir(), "provision.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\napt-get update -qq\n"), 0o755); err != nil {
		t.Fatalf("failed to write provision script: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	builder := imagebuild.NewBuilder(client, imagebuild.WithOutput(os.Stderr))

	prefix := "stagehand-e2e-" + time.Now().Format("20060102-150405")
	t.Logf("building image %s-*...", prefix)

	snapshotID, err := builder.Build(ctx, imagebuild.BuildSpec{
		BaseImage:  "debian-13",
		ServerType: "cx22",
		Location:   "nbg1",
		Script:     script,
		NamePrefix: prefix,
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Logf("build succeeded, snapshot %s", snapshotID)

	if !cfg.KeepResources {
		t.Cleanup(func() {
			if err := client.DeleteImage(context.Background(), snapshotID); err != nil {
				t.Logf("failed to delete snapshot %s: %v", snapshotID, err)
			}
		})
	}

	// The snapshot must carry the golden image labels so environment
	// definitions can pick it up.
	img, err := client.GetSnapshotByLabels(ctx, map[string]string{
		labels.KeyManagedBy: labels.ManagedByStagehand,
		labels.KeyKind:      labels.KindGoldenImage,
	})
	if err != nil {
		t.Fatalf("failed to look up snapshot by labels: %v", err)
	}
	if img == nil {
		t.Fatal("built snapshot not discoverable via golden image labels")
	}
}
