//go:build e2e

package e2e

import (
	"os"
	"strings"
	"testing"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// E2EConfig controls which parts of the e2e suite run and where.
type E2EConfig struct {
	// Phase control
	SkipImageBuild bool
	SkipStateStore bool
	SkipProvision  bool

	// Resource management
	KeepResources bool // leave servers and snapshots behind for inspection

	// Target repository for pull request checks
	Repository string
}

// LoadE2EConfig loads suite configuration from environment variables.
func LoadE2EConfig() *E2EConfig {
	return &E2EConfig{
		SkipImageBuild: getEnvBool("E2E_SKIP_IMAGE_BUILD"),
		SkipStateStore: getEnvBool("E2E_SKIP_STATE_STORE"),
		SkipProvision:  getEnvBool("E2E_SKIP_PROVISION"),
		KeepResources:  getEnvBool("E2E_KEEP_RESOURCES"),
		Repository:     os.Getenv("E2E_REPOSITORY"),
	}
}

func getEnvBool(name string) bool {
	v := strings.ToLower(os.Getenv(name))
	return v == "1" || v == "true" || v == "yes"
}

// requireHCloudToken skips the test when no Hetzner Cloud token is set.
func requireHCloudToken(t *testing.T) string {
	t.Helper()
	token := os.Getenv("HCLOUD_TOKEN")
	if token == "" {
		t.Skip("HCLOUD_TOKEN not set, skipping e2e test")
	}
	return token
}

// requireStateCredentials skips the test when the state store credentials
// or location are not set.
func requireStateCredentials(t *testing.T) (config.StateConfig, string, string) {
	t.Helper()
	access := os.Getenv("STAGEHAND_STATE_ACCESS_KEY")
	secret := os.Getenv("STAGEHAND_STATE_SECRET_KEY")
	endpoint := os.Getenv("E2E_STATE_ENDPOINT")
	bucket := os.Getenv("E2E_STATE_BUCKET")
	if access == "" || secret == "" || endpoint == "" || bucket == "" {
		t.Skip("state store credentials not set, skipping e2e test")
	}
	region := os.Getenv("E2E_STATE_REGION")
	if region == "" {
		region = "fsn1"
	}
	return config.StateConfig{Endpoint: endpoint, Region: region, Bucket: bucket}, access, secret
}
