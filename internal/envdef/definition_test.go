package envdef

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/util/labels"
)

func baseDefinition() Definition {
	return Definition{
		Name:       "staging",
		ImageID:    "230954120",
		ServerType: "cx22",
		Location:   "nbg1",
		SSHKeyName: "deploy-key",
		OutputName: "staging_dns",
	}
}

func TestToken_Deterministic(t *testing.T) {
	d := baseDefinition()

	assert.Equal(t, d.Token(), d.Token())
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), d.Token())
}

func TestToken_ChangesWithImageReference(t *testing.T) {
	d := baseDefinition()
	before := d.Token()

	d.ImageID = "230954999"
	after := d.Token()

	assert.NotEqual(t, before, after,
		"a new image reference must produce a new identity token")
}

func TestToken_ChangesWithEnvironmentName(t *testing.T) {
	a := baseDefinition()
	b := baseDefinition()
	b.Name = "production"

	assert.NotEqual(t, a.Token(), b.Token())
}

func TestToken_IgnoresServerShape(t *testing.T) {
	a := baseDefinition()
	b := baseDefinition()
	b.ServerType = "cx32"
	b.Location = "fsn1"

	assert.Equal(t, a.Token(), b.Token(),
		"shape changes converge in place and must keep the token")
}

func TestServerName_EmbedsToken(t *testing.T) {
	d := ForPullRequest(baseDefinition(), 42)

	name := d.ServerName()
	assert.Contains(t, name, d.Token())
	assert.NotContains(t, name, "_", "hostnames must not contain underscores")
	assert.Equal(t, name, d.ServerName(), "server names are deterministic")
}

func TestForPullRequest_NamesEmbedNumber(t *testing.T) {
	d := ForPullRequest(baseDefinition(), 42)

	assert.Equal(t, "staging_PR_42", d.Name)
	assert.Equal(t, "extra_staging_PR_42.tf", d.FileName())
	assert.Equal(t, "staging_dns_PR_42", d.OutputName)
	assert.Equal(t, 42, d.PullRequest)
}

func TestForPullRequest_Deterministic(t *testing.T) {
	a := ForPullRequest(baseDefinition(), 42)
	b := ForPullRequest(baseDefinition(), 42)

	assert.Equal(t, a, b)
}

func TestForPullRequest_DistinctAcrossNumbers(t *testing.T) {
	a := ForPullRequest(baseDefinition(), 42)
	b := ForPullRequest(baseDefinition(), 7)

	assert.NotEqual(t, a.Name, b.Name)
	assert.NotEqual(t, a.FileName(), b.FileName())
	assert.NotEqual(t, a.OutputName, b.OutputName)
}

func TestForPullRequest_Labels(t *testing.T) {
	base := baseDefinition()
	base.Labels = map[string]string{"team": "payments"}

	d := ForPullRequest(base, 42)

	assert.Equal(t, "42", d.Labels[labels.KeyPullRequest])
	assert.Equal(t, "staging_PR_42", d.Labels[labels.KeyEnvironment])
	assert.Equal(t, labels.ManagedByStagehand, d.Labels[labels.KeyManagedBy])
	assert.Equal(t, "payments", d.Labels["team"], "base labels carry over")
	assert.Empty(t, base.Labels[labels.KeyPullRequest], "base labels stay untouched")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{
		{
			name:    "valid",
			mutate:  func(d *Definition) {},
			wantErr: "",
		},
		{
			name:    "missing name",
			mutate:  func(d *Definition) { d.Name = "" },
			wantErr: "no name",
		},
		{
			name:    "invalid name",
			mutate:  func(d *Definition) { d.Name = "42abc" },
			wantErr: "not a valid identifier",
		},
		{
			name:    "missing image",
			mutate:  func(d *Definition) { d.ImageID = "" },
			wantErr: "no image reference",
		},
		{
			name:    "missing server type",
			mutate:  func(d *Definition) { d.ServerType = "" },
			wantErr: "no server type",
		},
		{
			name:    "missing location",
			mutate:  func(d *Definition) { d.Location = "" },
			wantErr: "no location",
		},
		{
			name:    "missing output",
			mutate:  func(d *Definition) { d.OutputName = "" },
			wantErr: "no output name",
		},
		{
			name:    "invalid output",
			mutate:  func(d *Definition) { d.OutputName = "output name" },
			wantErr: "not a valid identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := baseDefinition()
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateOutputs(t *testing.T) {
	staging := baseDefinition()
	pr42 := ForPullRequest(staging, 42)
	pr7 := ForPullRequest(staging, 7)

	assert.NoError(t, ValidateOutputs([]Definition{staging, pr42, pr7}))

	clash := pr7
	clash.Name = "staging_PR_7_copy"
	clash.OutputName = pr42.OutputName

	err := ValidateOutputs([]Definition{staging, pr42, clash})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging_dns_PR_42")
	assert.Contains(t, err.Error(), "staging_PR_42")
	assert.Contains(t, err.Error(), "staging_PR_7_copy")
}
