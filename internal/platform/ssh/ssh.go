package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/stagehand-dev/stagehand/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 60
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the maximum number of connection retry attempts.
	// If zero, defaultMaxRetries is used.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used (suitable for ephemeral
	// infrastructure; build servers and PR environments never outlive the
	// run that created them).
	HostKeyCallback ssh.HostKeyCallback
}

// Client executes commands on a remote server via SSH.
// It parses the private key once during construction and
// creates connections on-demand per call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Ephemeral infrastructure default
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Addr returns the host:port the client connects to.
func (c *Client) Addr() string {
	return fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
}

// Execute runs a command on the remote host and returns its combined output.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	var out bytes.Buffer
	if err := c.run(ctx, command, nil, &out); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}

// ExecuteStream runs a command and streams its combined output to out as it
// is produced. Used for long-running provisioning scripts where buffered
// output would hide progress.
func (c *Client) ExecuteStream(ctx context.Context, command string, out io.Writer) error {
	return c.run(ctx, command, nil, out)
}

// Upload writes the content stream to remotePath and sets its permission
// bits. Parent directories are created as needed.
func (c *Client) Upload(ctx context.Context, content io.Reader, remotePath string, mode uint32) error {
	dir := remoteDir(remotePath)
	command := fmt.Sprintf("mkdir -p %s && cat > %s && chmod %o %s",
		Quote(dir), Quote(remotePath), mode, Quote(remotePath))

	var out bytes.Buffer
	if err := c.run(ctx, command, content, &out); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

// ExtractArchive streams a gzipped tarball to the remote host and unpacks
// it into remoteDir, replacing the directory's previous content.
// stripComponents drops leading path elements, which removes the repository
// top-level directory GitHub prepends to source tarballs.
func (c *Client) ExtractArchive(ctx context.Context, archive io.Reader, remoteDir string, stripComponents int) error {
	command := fmt.Sprintf("rm -rf %s && mkdir -p %s && tar -xzf - --strip-components=%d -C %s",
		Quote(remoteDir), Quote(remoteDir), stripComponents, Quote(remoteDir))

	var out bytes.Buffer
	if err := c.run(ctx, command, archive, &out); err != nil {
		return fmt.Errorf("failed to extract archive to %s: %w", remoteDir, err)
	}
	return nil
}

// run connects, executes a single command with the given stdin and output
// writer, and honors context cancellation while the command is running.
func (c *Client) run(ctx context.Context, command string, stdin io.Reader, out io.Writer) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	session.Stdin = stdin
	session.Stdout = out
	session.Stderr = out

	if err := session.Start(command); err != nil {
		return fmt.Errorf("failed to start command on %s: %w", c.config.Host, err)
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("command failed on %s: %w\nCommand: %s", c.config.Host, err, command)
		}
		return nil
	}
}

// connect establishes an SSH connection with retry logic.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := c.Addr()
	var client *ssh.Client

	// Fresh servers can take a while to finish booting after the port
	// starts accepting connections.
	err := retry.WithExponentialBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s after %d retry attempts: %w",
			addr, c.config.MaxRetries, err)
	}

	return client, nil
}
