package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/stagehand-dev/stagehand/internal/util/retry"
)

// CreateSnapshot creates a snapshot of the server and waits for it to
// become available.
func (c *RealClient) CreateSnapshot(ctx context.Context, serverID, description string, labels map[string]string) (string, error) {
	id, err := strconv.ParseInt(serverID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid server id: %s", serverID)
	}
	server := &hcloud.Server{ID: id}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.SnapshotWait)
	defer cancel()

	result, _, err := c.client.Server.CreateImage(ctx, server, &hcloud.ServerCreateImageOpts{
		Type:        hcloud.ImageTypeSnapshot,
		Description: &description,
		Labels:      labels,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := c.client.Action.WaitFor(ctx, result.Action); err != nil {
		return "", fmt.Errorf("failed to wait for snapshot creation: %w", err)
	}

	if result.Image.Status != hcloud.ImageStatusAvailable {
		if err := c.waitForImageAvailability(ctx, result.Image); err != nil {
			return "", err
		}
	}

	return strconv.FormatInt(result.Image.ID, 10), nil
}

// DeleteImage deletes an image by ID.
func (c *RealClient) DeleteImage(ctx context.Context, imageID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	id, err := strconv.ParseInt(imageID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid image id: %s", imageID)
	}

	// Snapshots stay locked while a server is still being created from them.
	return retry.WithExponentialBackoff(ctx, func() error {
		_, err := c.client.Image.Delete(ctx, &hcloud.Image{ID: id})
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			if isResourceLocked(err) {
				return err
			}
			return retry.Fatal(fmt.Errorf("failed to delete image: %w", err))
		}
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

// GetSnapshotByLabels returns the most recently created snapshot matching
// the given labels, or nil if none exists.
func (c *RealClient) GetSnapshotByLabels(ctx context.Context, labels map[string]string) (*hcloud.Image, error) {
	images, err := c.ListSnapshots(ctx, labels)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}
	return images[0], nil
}

// ListSnapshots returns all snapshots matching the given labels, newest
// first.
func (c *RealClient) ListSnapshots(ctx context.Context, labels map[string]string) ([]*hcloud.Image, error) {
	opts := hcloud.ImageListOpts{
		Type: []hcloud.ImageType{hcloud.ImageTypeSnapshot},
		Sort: []string{"created:desc"},
	}
	opts.LabelSelector = buildLabelSelector(labels)

	images, err := c.client.Image.AllWithOpts(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return images, nil
}
