package hcloud

import (
	"context"
	"fmt"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// resolveImage resolves an image by name or ID and waits for it to become
// available. When a name matches images of several architectures, the one
// matching the server type wins.
func (c *RealClient) resolveImage(ctx context.Context, nameOrID string, serverType *hcloud.ServerType) (*hcloud.Image, error) {
	image, _, err := c.client.Image.Get(ctx, nameOrID) //nolint:staticcheck
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s", nameOrID)
	}

	// Distribution images exist per architecture under the same name.
	if image.Architecture != serverType.Architecture {
		images, _, err := c.client.Image.List(ctx, hcloud.ImageListOpts{
			Name:         nameOrID,
			Architecture: []hcloud.Architecture{serverType.Architecture},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}
		if len(images) == 0 {
			return nil, fmt.Errorf("image %s not available for architecture %s", nameOrID, serverType.Architecture)
		}
		image = images[0]
	}

	if image.Status != hcloud.ImageStatusAvailable {
		if err := c.waitForImageAvailability(ctx, image); err != nil {
			return nil, err
		}
	}

	return image, nil
}

// waitForImageAvailability waits for an image to become available.
func (c *RealClient) waitForImageAvailability(ctx context.Context, image *hcloud.Image) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	timeout := time.After(c.timeouts.SnapshotWait)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout waiting for image %d to become available", image.ID)
		case <-ticker.C:
			img, _, err := c.client.Image.GetByID(ctx, image.ID)
			if err != nil {
				return fmt.Errorf("failed to get image status: %w", err)
			}
			if img.Status == hcloud.ImageStatusAvailable {
				return nil
			}
		}
	}
}

// resolveSSHKeys resolves SSH key names/IDs to SSH key objects.
func (c *RealClient) resolveSSHKeys(ctx context.Context, sshKeys []string) ([]*hcloud.SSHKey, error) {
	var sshKeyObjs []*hcloud.SSHKey
	for _, key := range sshKeys {
		keyObj, _, err := c.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeyObjs = append(sshKeyObjs, keyObj)
	}
	return sshKeyObjs, nil
}

// resolveLocation resolves a location name to a location object.
func (c *RealClient) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}

	locObj, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if locObj == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return locObj, nil
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}
