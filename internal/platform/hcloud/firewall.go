package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// GetFirewall returns the firewall with the given name, or nil if it does
// not exist. Environment definitions reference firewalls by name; stagehand
// validates the reference but never mutates firewalls, those belong to
// Terraform.
func (c *RealClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	fw, _, err := c.client.Firewall.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get firewall %s: %w", name, err)
	}
	return fw, nil
}
