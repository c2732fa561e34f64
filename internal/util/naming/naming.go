package naming

import (
	"fmt"
	"strings"
	"time"
)

// Naming functions for staging resources.
// Terraform identifiers keep the staging_PR_{n} shape; anything that becomes
// an actual hostname goes through Hostname to satisfy RFC 1123.

const timestampLayout = "20060102150405"

// PullRequestEnvironment returns the environment name for a pull request.
func PullRequestEnvironment(pr int) string {
	return fmt.Sprintf("staging_PR_%d", pr)
}

// PullRequestDefinitionFile returns the definition file name for a pull
// request environment.
func PullRequestDefinitionFile(pr int) string {
	return fmt.Sprintf("extra_staging_PR_%d.tf", pr)
}

// PullRequestOutput returns the Terraform output name exporting the
// environment's reachable address.
func PullRequestOutput(pr int) string {
	return fmt.Sprintf("staging_dns_PR_%d", pr)
}

// Hostname converts an environment name and identity token into a valid
// server hostname: lowercased, underscores flattened to hyphens.
func Hostname(env, token string) string {
	name := fmt.Sprintf("%s-%s", env, token)
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, "_", "-")
}

// Snapshot returns the name of a golden image built at the given time.
func Snapshot(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, at.Format(timestampLayout))
}

// BuildServer returns the name of the throwaway server used to build an
// image.
func BuildServer(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-build-%s", prefix, at.Format(timestampLayout))
}

// BuildKey returns the name of the ephemeral SSH key used during an image
// build.
func BuildKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-build-key-%s", prefix, at.Format(timestampLayout))
}

// StateKey returns the object store key under which a definition file is
// persisted.
func StateKey(file string) string {
	return "definitions/" + file
}
