package config

import (
	"fmt"
	"os"
	"strings"
)

// Credentials holds the secrets stagehand needs at runtime. They are never
// read from stagehand.yaml, which is expected to live in version control.
type Credentials struct {
	// HCloudToken authenticates against the Hetzner Cloud API
	// (HCLOUD_TOKEN).
	HCloudToken string

	// GitHubToken authenticates pull request reads and comment writes
	// (GITHUB_TOKEN).
	GitHubToken string

	// StateAccessKey / StateSecretKey authenticate against the definition
	// state store (STAGEHAND_STATE_ACCESS_KEY / STAGEHAND_STATE_SECRET_KEY).
	StateAccessKey string
	StateSecretKey string
}

// LoadCredentials reads all credentials from the environment. Missing values
// stay empty; callers declare what they need via Require.
func LoadCredentials() *Credentials {
	return &Credentials{
		HCloudToken:    os.Getenv("HCLOUD_TOKEN"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		StateAccessKey: os.Getenv("STAGEHAND_STATE_ACCESS_KEY"),
		StateSecretKey: os.Getenv("STAGEHAND_STATE_SECRET_KEY"),
	}
}

// Credential names accepted by Require.
const (
	CredentialHCloud = "hcloud"
	CredentialGitHub = "github"
	CredentialState  = "state"
)

// Require returns an error naming every requested credential that is not
// set, so commands can fail fast with actionable messages.
func (c *Credentials) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		switch name {
		case CredentialHCloud:
			if c.HCloudToken == "" {
				missing = append(missing, "HCLOUD_TOKEN")
			}
		case CredentialGitHub:
			if c.GitHubToken == "" {
				missing = append(missing, "GITHUB_TOKEN")
			}
		case CredentialState:
			if c.StateAccessKey == "" {
				missing = append(missing, "STAGEHAND_STATE_ACCESS_KEY")
			}
			if c.StateSecretKey == "" {
				missing = append(missing, "STAGEHAND_STATE_SECRET_KEY")
			}
		default:
			return fmt.Errorf("unknown credential %q", name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
