package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/platform/github"
	"github.com/stagehand-dev/stagehand/internal/platform/ssh"
)

// outputTail bounds how much remote command output gets embedded in a
// failure error.
const outputTail = 4096

var (
	// ErrDeploymentTimeout marks a deploy that did not finish within the
	// configured deadline. Never retried.
	ErrDeploymentTimeout = errors.New("deployment timed out")

	// ErrDeploymentFailure marks a deploy step that failed on the remote
	// host. Never retried; recovery is manual.
	ErrDeploymentFailure = errors.New("deployment failed")
)

// Target identifies where a deploy lands and which source it carries.
type Target struct {
	// Address is the instance's reachable IP address or FQDN.
	Address string

	// Ref is the git ref whose application subtree is synced.
	Ref string
}

// remoteHost is the slice of the SSH client a deploy needs.
type remoteHost interface {
	ExtractArchive(ctx context.Context, archive io.Reader, remoteDir string, stripComponents int) error
	Execute(ctx context.Context, command string) (string, error)
	InteractiveShell(ctx context.Context) error
}

// Deployer syncs source tarballs to staging instances and runs the remote
// restart sequence.
type Deployer struct {
	source   github.TarballDownloader
	cfg      config.DeployConfig
	appDir   string
	key      []byte
	timeouts *config.Timeouts
	log      logr.Logger
	dial     func(cfg *ssh.Config) (remoteHost, error)
}

// Option customizes a Deployer.
type Option func(*Deployer)

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logr.Logger) Option {
	return func(d *Deployer) {
		d.log = log
	}
}

// WithTimeouts overrides the deploy timeouts, primarily for tests.
func WithTimeouts(t *config.Timeouts) Option {
	return func(d *Deployer) {
		d.timeouts = t
	}
}

// NewDeployer creates a Deployer. The deploy key is read once up front so a
// bad path fails before any remote work starts.
func NewDeployer(source github.TarballDownloader, cfg config.DeployConfig, repo config.RepositoryConfig, opts ...Option) (*Deployer, error) {
	if source == nil {
		return nil, fmt.Errorf("source downloader is required")
	}
	if cfg.PrivateKeyFile == "" {
		return nil, fmt.Errorf("deploy private key file is not configured")
	}
	key, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy key: %w", err)
	}

	appDir := strings.Trim(repo.AppDir, "/")
	if appDir == "." {
		appDir = ""
	}

	d := &Deployer{
		source: source,
		cfg:    cfg,
		appDir: appDir,
		key:    key,
		log:    logr.Discard(),
		dial: func(cfg *ssh.Config) (remoteHost, error) {
			return ssh.NewClient(cfg)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.timeouts == nil {
		d.timeouts = config.LoadTimeouts()
	}
	return d, nil
}

// Deploy downloads the ref's source tarball, syncs the application subtree
// to the target and runs the remote restart sequence. The whole call runs
// under Timeouts.Deploy; expiry surfaces as ErrDeploymentTimeout.
func (d *Deployer) Deploy(ctx context.Context, target Target) error {
	if target.Address == "" {
		return fmt.Errorf("%w: deploy target has no address", ErrDeploymentFailure)
	}
	if target.Ref == "" {
		return fmt.Errorf("%w: deploy target has no source ref", ErrDeploymentFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeouts.Deploy)
	defer cancel()

	d.log.Info("downloading source", "ref", target.Ref)
	archive, err := d.source.DownloadTarball(ctx, target.Ref)
	if err != nil {
		return d.classify(err, "source download", "")
	}
	defer func() { _ = archive.Close() }()

	client, err := d.dial(&ssh.Config{
		Host:       target.Address,
		User:       d.cfg.User,
		PrivateKey: d.key,
	})
	if err != nil {
		return d.classify(err, "SSH client setup", "")
	}

	// GitHub prepends a top-level directory to source tarballs; the
	// configured app subtree adds more. Both are stripped on extraction.
	stream := io.Reader(archive)
	strip := 1
	if d.appDir != "" {
		stream = filterSubtree(archive, d.appDir)
		strip += componentCount(d.appDir)
	}

	d.log.Info("syncing application", "address", target.Address, "path", d.cfg.AppPath)
	if err := client.ExtractArchive(ctx, stream, d.cfg.AppPath, strip); err != nil {
		return d.classify(err, "source sync", "")
	}

	steps := []struct {
		name    string
		command string
	}{
		{"dependency install", d.cfg.InstallCommand},
		{"application restart", d.cfg.RestartCommand},
		{"web server reload", d.cfg.WebCommand},
	}
	for _, step := range steps {
		if step.command == "" {
			continue
		}
		d.log.Info("running remote command", "step", step.name)
		out, err := client.Execute(ctx, "cd "+ssh.Quote(d.cfg.AppPath)+" && "+step.command)
		if err != nil {
			return d.classify(err, step.name, out)
		}
	}

	d.log.Info("deploy finished", "address", target.Address)
	return nil
}

// DebugSession opens an interactive shell on the target for manual
// diagnosis after a failed deploy. Not bounded by the deploy timeout.
func (d *Deployer) DebugSession(ctx context.Context, target Target) error {
	client, err := d.dial(&ssh.Config{
		Host:       target.Address,
		User:       d.cfg.User,
		PrivateKey: d.key,
	})
	if err != nil {
		return fmt.Errorf("failed to create SSH client: %w", err)
	}
	return client.InteractiveShell(ctx)
}

func (d *Deployer) classify(err error, step, output string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s did not finish within %s", ErrDeploymentTimeout, step, d.timeouts.Deploy)
	}
	detail := strings.TrimSpace(output)
	if detail == "" {
		return fmt.Errorf("%w: %s: %v", ErrDeploymentFailure, step, err)
	}
	return fmt.Errorf("%w: %s: %v\noutput:\n%s", ErrDeploymentFailure, step, err, tail(detail))
}

func tail(s string) string {
	if len(s) <= outputTail {
		return s
	}
	return "..." + s[len(s)-outputTail:]
}
