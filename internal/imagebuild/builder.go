package imagebuild

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/platform/ssh"
	"github.com/stagehand-dev/stagehand/internal/util/keygen"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
	"github.com/stagehand-dev/stagehand/internal/util/naming"
	"github.com/stagehand-dev/stagehand/internal/util/netutil"
)

const (
	buildKeyBits     = 4096
	remoteScriptPath = "/root/stagehand-provision.sh"

	// outputTail bounds how much script output gets embedded in a failure
	// error.
	outputTail = 4096
)

// BuildSpec describes one golden image build.
type BuildSpec struct {
	// BaseImage is the image the build server boots from.
	BaseImage string

	// ServerType determines shape and architecture of the build server,
	// and therefore of the snapshot.
	ServerType string

	// Location is the datacenter the build runs in.
	Location string

	// Script is the local path of the provisioning script.
	Script string

	// NamePrefix names the snapshot; the build timestamp is appended.
	NamePrefix string

	// Labels are merged into every resource the build creates.
	Labels map[string]string
}

// remote is the slice of the SSH client a build needs.
type remote interface {
	Upload(ctx context.Context, content io.Reader, remotePath string, mode uint32) error
	ExecuteStream(ctx context.Context, command string, out io.Writer) error
}

// Builder builds golden images on Hetzner Cloud.
type Builder struct {
	infra    hcloud.InfrastructureManager
	timeouts *config.Timeouts
	log      logr.Logger
	out      io.Writer
	now      func() time.Time
	sshPort  int
	dial     func(cfg *ssh.Config) (remote, error)
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logr.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// WithTimeouts overrides the build timeouts, primarily for tests.
func WithTimeouts(t *config.Timeouts) Option {
	return func(b *Builder) {
		b.timeouts = t
	}
}

// WithOutput streams provisioning script output to w as it is produced.
func WithOutput(w io.Writer) Option {
	return func(b *Builder) {
		b.out = w
	}
}

// NewBuilder creates a Builder on top of the given infrastructure client.
func NewBuilder(infra hcloud.InfrastructureManager, opts ...Option) *Builder {
	b := &Builder{
		infra:   infra,
		log:     logr.Discard(),
		out:     io.Discard,
		now:     time.Now,
		sshPort: netutil.SSHPort,
		dial: func(cfg *ssh.Config) (remote, error) {
			return ssh.NewClient(cfg)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.timeouts == nil {
		b.timeouts = config.LoadTimeouts()
	}
	return b
}

// Build runs one image build and returns the snapshot ID. A non-zero script
// exit aborts the build with the script output attached; builds are never
// retried automatically.
func (b *Builder) Build(ctx context.Context, spec BuildSpec) (string, error) {
	if b.infra == nil {
		return "", fmt.Errorf("infrastructure client is required")
	}
	if err := validateSpec(spec); err != nil {
		return "", err
	}

	// Read the script before creating anything remote, so a bad path
	// cannot leave resources behind.
	script, err := os.ReadFile(spec.Script)
	if err != nil {
		return "", fmt.Errorf("failed to read provisioning script: %w", err)
	}

	startedAt := b.now()
	imageName := naming.Snapshot(spec.NamePrefix, startedAt)
	serverName := naming.BuildServer(spec.NamePrefix, startedAt)
	keyName := naming.BuildKey(spec.NamePrefix, startedAt)
	arch := hcloud.DetectArchitecture(spec.ServerType)

	b.log.Info("starting image build",
		"image", imageName, "base", spec.BaseImage, "arch", arch.String())

	keyPair, err := keygen.GenerateRSAKeyPair(buildKeyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate build key: %w", err)
	}

	keyLabels := labels.NewLabelBuilder().
		Merge(spec.Labels).
		WithKind(labels.KindBuildKey).
		Build()
	if _, err := b.infra.CreateSSHKey(ctx, keyName, string(keyPair.PublicKey), keyLabels); err != nil {
		return "", fmt.Errorf("failed to upload build key: %w", err)
	}
	defer b.cleanupSSHKey(keyName)

	serverLabels := labels.NewLabelBuilder().
		Merge(spec.Labels).
		WithKind(labels.KindBuildServer).
		Build()
	defer b.cleanupServer(serverName)

	serverID, err := b.infra.CreateServer(ctx, hcloud.ServerCreateOpts{
		Name:       serverName,
		Image:      spec.BaseImage,
		ServerType: spec.ServerType,
		Location:   spec.Location,
		SSHKeys:    []string{keyName},
		Labels:     serverLabels,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create build server: %w", err)
	}

	ip, err := b.infra.GetServerIP(ctx, serverName)
	if err != nil {
		return "", fmt.Errorf("failed to get build server address: %w", err)
	}

	b.log.Info("waiting for build server", "address", ip)
	if err := netutil.WaitForPort(ctx, ip, b.sshPort, b.timeouts.SSHReady); err != nil {
		return "", fmt.Errorf("build server never became reachable: %w", err)
	}

	if err := b.provision(ctx, ip, keyPair.PrivateKey, script); err != nil {
		return "", err
	}

	b.log.Info("powering off build server")
	if err := b.infra.PoweroffServer(ctx, serverID); err != nil {
		return "", fmt.Errorf("failed to power off build server: %w", err)
	}

	snapshotLabels := labels.NewLabelBuilder().
		Merge(spec.Labels).
		WithKind(labels.KindGoldenImage).
		WithBaseImage(spec.BaseImage).
		WithPrefix(spec.NamePrefix).
		WithArchitecture(arch.String()).
		Build()

	b.log.Info("creating snapshot", "image", imageName)
	imageID, err := b.infra.CreateSnapshot(ctx, serverID, imageName, snapshotLabels)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	b.log.Info("image build finished", "image", imageName, "id", imageID)
	return imageID, nil
}

// provision uploads the script and runs it under bash -e, streaming output.
func (b *Builder) provision(ctx context.Context, ip string, privateKey, script []byte) error {
	client, err := b.dial(&ssh.Config{
		Host:       ip,
		User:       "root",
		PrivateKey: privateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create SSH client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeouts.ImageBuild)
	defer cancel()

	if err := client.Upload(ctx, bytes.NewReader(script), remoteScriptPath, 0o755); err != nil {
		return fmt.Errorf("failed to upload provisioning script: %w", err)
	}

	var captured bytes.Buffer
	out := io.MultiWriter(&captured, b.out)

	b.log.Info("running provisioning script")
	if err := client.ExecuteStream(ctx, "bash -e "+remoteScriptPath, out); err != nil {
		return fmt.Errorf("provisioning script failed: %w\noutput:\n%s", err, tail(captured.Bytes()))
	}
	return nil
}

func (b *Builder) cleanupServer(name string) {
	b.log.Info("cleaning up build server", "server", name)
	if err := b.infra.DeleteServer(context.Background(), name); err != nil {
		b.log.Error(err, "failed to delete build server", "server", name)
	}
}

func (b *Builder) cleanupSSHKey(name string) {
	b.log.Info("cleaning up build key", "key", name)
	if err := b.infra.DeleteSSHKey(context.Background(), name); err != nil {
		b.log.Error(err, "failed to delete build key", "key", name)
	}
}

func validateSpec(spec BuildSpec) error {
	switch {
	case spec.BaseImage == "":
		return fmt.Errorf("build spec has no base image")
	case spec.ServerType == "":
		return fmt.Errorf("build spec has no server type")
	case spec.Script == "":
		return fmt.Errorf("build spec has no provisioning script")
	case spec.NamePrefix == "":
		return fmt.Errorf("build spec has no name prefix")
	}
	return nil
}

func tail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= outputTail {
		return s
	}
	return "..." + s[len(s)-outputTail:]
}
