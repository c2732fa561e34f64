package envdef

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/internal/util/labels"
	"github.com/stagehand-dev/stagehand/internal/util/naming"
)

// Definition describes one staging environment as configuration data. It has
// no behavior of its own; Render turns it into Terraform and the evaluator
// converges it.
type Definition struct {
	// Name is the environment name and doubles as the Terraform resource
	// name, e.g. "staging" or "staging_PR_42".
	Name string

	// ImageID references the golden image the server boots from.
	ImageID string

	ServerType string
	Location   string

	// SSHKeyName references an already uploaded Hetzner SSH key.
	SSHKeyName string

	// FirewallName optionally attaches an existing firewall, looked up by
	// name through a data source.
	FirewallName string

	// BaseDomain, when set, registers a reverse DNS record and makes the
	// exported address a FQDN instead of a raw IP.
	BaseDomain string

	// OutputName is the Terraform output exporting the reachable address.
	// It must be unique across every definition sharing a state store.
	OutputName string

	// PullRequest is the pull request this environment tracks, 0 for the
	// permanent environments.
	PullRequest int

	// Labels are applied to the server resource.
	Labels map[string]string
}

// tokenNamespace scopes identity token UUIDs to stagehand definitions.
var tokenNamespace = uuid.MustParse("9c2f7651-3e84-4db1-a5c9-06b8d21f4e70")

// Token derives the identity token binding this environment to its image.
// It is deterministic for a given (name, image) pair and changes whenever
// the image reference changes, which renames the server and forces the
// evaluator to replace the instance instead of mutating it in place. A
// stale image therefore never keeps running under a current-looking name.
func (d Definition) Token() string {
	id := uuid.NewSHA1(tokenNamespace, []byte(d.Name+"\x00"+d.ImageID))
	return hex.EncodeToString(id[:4])
}

// ServerName returns the instance hostname, which embeds the identity
// token.
func (d Definition) ServerName() string {
	return naming.Hostname(d.Name, d.Token())
}

// FQDN returns the fully qualified name under BaseDomain, or "" when no
// domain is configured.
func (d Definition) FQDN() string {
	if d.BaseDomain == "" {
		return ""
	}
	return d.ServerName() + "." + d.BaseDomain
}

// FileName returns the definition file name, "extra_" marking files the
// pipeline generated.
func (d Definition) FileName() string {
	return "extra_" + d.Name + ".tf"
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate reports the first problem that would make the definition
// unrenderable.
func (d Definition) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("definition has no name")
	case !identifierRe.MatchString(d.Name):
		return fmt.Errorf("definition name %q is not a valid identifier", d.Name)
	case d.ImageID == "":
		return fmt.Errorf("definition %s has no image reference", d.Name)
	case d.ServerType == "":
		return fmt.Errorf("definition %s has no server type", d.Name)
	case d.Location == "":
		return fmt.Errorf("definition %s has no location", d.Name)
	case d.OutputName == "":
		return fmt.Errorf("definition %s has no output name", d.Name)
	case !identifierRe.MatchString(d.OutputName):
		return fmt.Errorf("definition %s output name %q is not a valid identifier", d.Name, d.OutputName)
	}
	return nil
}

// ForPullRequest derives the ephemeral environment for a pull request from
// a base definition. The derived name, file, and output embed the PR
// number, deterministic for the same number and disjoint across numbers.
func ForPullRequest(base Definition, pr int) Definition {
	d := base
	d.Name = naming.PullRequestEnvironment(pr)
	d.OutputName = naming.PullRequestOutput(pr)
	d.PullRequest = pr
	d.Labels = labels.NewLabelBuilder().
		Merge(base.Labels).
		WithEnvironment(d.Name).
		WithPullRequest(pr).
		Build()
	return d
}

// ValidateOutputs rejects definition sets whose exported address names
// collide. Two environments sharing an output name would clobber each
// other's address in the shared state.
func ValidateOutputs(defs []Definition) error {
	seen := make(map[string]string, len(defs))
	for _, d := range defs {
		if d.OutputName == "" {
			return fmt.Errorf("definition %s has no output name", d.Name)
		}
		if other, ok := seen[d.OutputName]; ok {
			return fmt.Errorf("output %s exported by both %s and %s", d.OutputName, other, d.Name)
		}
		seen[d.OutputName] = d.Name
	}
	return nil
}
