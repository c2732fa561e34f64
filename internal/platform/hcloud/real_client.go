package hcloud

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// RealClient implements InfrastructureManager against the Hetzner Cloud API.
type RealClient struct {
	client   *hcloud.Client
	timeouts *config.Timeouts
	log      logr.Logger
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts overrides the timeout configuration.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithHCloudClient injects a pre-configured API client. Used in tests to
// point the client at a local test server.
func WithHCloudClient(client *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = client
	}
}

// WithLogger sets the logger for progress output from long-running
// operations. Defaults to a discarding logger.
func WithLogger(log logr.Logger) ClientOption {
	return func(c *RealClient) {
		c.log = log
	}
}

// NewRealClient creates a client for the Hetzner Cloud API.
func NewRealClient(token string, opts ...ClientOption) (*RealClient, error) {
	if token == "" {
		return nil, errors.New("hcloud token is required")
	}

	c := &RealClient{
		timeouts: config.LoadTimeouts(),
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = hcloud.NewClient(
			hcloud.WithToken(token),
			hcloud.WithApplication("stagehand", ""),
		)
	}

	return c, nil
}

// HCloudClient exposes the underlying API client for operations not covered
// by the capability interfaces.
func (c *RealClient) HCloudClient() *hcloud.Client {
	return c.client
}
