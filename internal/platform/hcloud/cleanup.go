package hcloud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CleanupError represents accumulated errors from cleanup operations.
type CleanupError struct {
	Errors []error
}

func (e *CleanupError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cleanup encountered %d errors: %v", len(e.Errors), e.Errors)
}

func (e *CleanupError) Unwrap() error {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return errors.Join(e.Errors...)
}

func (e *CleanupError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *CleanupError) HasErrors() bool {
	return len(e.Errors) > 0
}

// resource is a constraint for the Hetzner Cloud resource types stagehand
// creates imperatively. Everything else is owned by Terraform state and
// must not be touched here.
type resource interface {
	*hcloud.Server | *hcloud.SSHKey
}

// resourceInfo extracts common fields from a resource for logging.
type resourceInfo struct {
	Name string
	ID   int64
}

func getResourceInfo[T resource](r T) resourceInfo {
	switch v := any(r).(type) {
	case *hcloud.Server:
		return resourceInfo{Name: v.Name, ID: v.ID}
	case *hcloud.SSHKey:
		return resourceInfo{Name: v.Name, ID: v.ID}
	default:
		return resourceInfo{}
	}
}

// deleteResourcesByLabel is a generic helper for deleting resources by label
// selector. Returns an error if listing fails, or a combined error of all
// deletion failures.
func deleteResourcesByLabel[T resource](
	ctx context.Context,
	c *RealClient,
	resourceType string,
	listFn func(context.Context) ([]T, error),
	deleteFn func(context.Context, T) error,
) error {
	resources, err := listFn(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", resourceType, err)
	}

	var deleteErrs []error
	for _, r := range resources {
		info := getResourceInfo(r)
		c.log.Info("deleting leftover resource", "type", resourceType, "name", info.Name, "id", info.ID)
		if err := deleteFn(ctx, r); err != nil {
			deleteErrs = append(deleteErrs, fmt.Errorf("%s %q: %w", resourceType, info.Name, err))
		}
	}

	if len(deleteErrs) > 0 {
		return errors.Join(deleteErrs...)
	}
	return nil
}

// CleanupByLabel deletes all managed build resources matching the given
// labels. Servers go first and are awaited so their SSH keys are free for
// deletion. All resource types are attempted even if some deletions fail;
// the returned CleanupError accumulates every failure.
func (c *RealClient) CleanupByLabel(ctx context.Context, labels map[string]string) error {
	selector := buildLabelSelector(labels)
	cleanupErrs := &CleanupError{}

	if err := c.deleteServersByLabel(ctx, selector); err != nil {
		cleanupErrs.Add(fmt.Errorf("servers: %w", err))
	}

	if err := c.deleteSSHKeysByLabel(ctx, selector); err != nil {
		cleanupErrs.Add(fmt.Errorf("ssh keys: %w", err))
	}

	if cleanupErrs.HasErrors() {
		return cleanupErrs
	}
	return nil
}

// buildLabelSelector converts a map of labels to a Hetzner Cloud label
// selector string. Keys are sorted so selectors are deterministic.
func buildLabelSelector(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	selector := ""
	for _, k := range keys {
		if selector != "" {
			selector += ","
		}
		selector += fmt.Sprintf("%s=%s", k, labels[k])
	}
	return selector
}

// deleteServersByLabel deletes all servers matching the label selector and
// waits for them to be gone.
func (c *RealClient) deleteServersByLabel(ctx context.Context, selector string) error {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: selector},
	})
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	var deleteErrs []error
	for _, s := range servers {
		c.log.Info("deleting leftover resource", "type", "server", "name", s.Name, "id", s.ID)
		if _, _, err := c.client.Server.DeleteWithResult(ctx, s); err != nil {
			deleteErrs = append(deleteErrs, fmt.Errorf("server %q: %w", s.Name, err))
		}
	}

	// Wait until the deletions have settled. A server that is still
	// terminating keeps its name reserved.
	if len(servers) > 0 {
		for i := 0; i < 60; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			remaining, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
			if err != nil || len(remaining) == 0 {
				break
			}
			time.Sleep(5 * time.Second)
		}
	}

	if len(deleteErrs) > 0 {
		return errors.Join(deleteErrs...)
	}
	return nil
}

// deleteSSHKeysByLabel deletes all SSH keys matching the label selector.
func (c *RealClient) deleteSSHKeysByLabel(ctx context.Context, selector string) error {
	return deleteResourcesByLabel(ctx, c, "ssh key",
		func(ctx context.Context) ([]*hcloud.SSHKey, error) {
			return c.client.SSHKey.AllWithOpts(ctx, hcloud.SSHKeyListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
		},
		func(ctx context.Context, k *hcloud.SSHKey) error {
			_, err := c.client.SSHKey.Delete(ctx, k)
			return err
		},
	)
}
