package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds the parameters for creating a build server.
type ServerCreateOpts struct {
	// Name is the server name. Must be unique within the project.
	Name string

	// Image is the name or ID of the image to boot from.
	Image string

	// ServerType determines CPU, memory and the architecture the
	// image is resolved against (e.g. "cx22", "cax11").
	ServerType string

	// Location is the Hetzner datacenter location (e.g. "nbg1").
	Location string

	// SSHKeys are the names of SSH keys to inject at first boot.
	SSHKeys []string

	// Labels are attached to the server for later cleanup.
	Labels map[string]string
}

// ServerProvisioner manages the lifecycle of ephemeral build servers.
type ServerProvisioner interface {
	// CreateServer creates a server and waits until it is running.
	// Returns the server ID.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (string, error)

	// DeleteServer deletes the server with the given name. Deleting a
	// server that does not exist is not an error.
	DeleteServer(ctx context.Context, name string) error

	// GetServerIP returns the public IPv4 address of the server.
	GetServerIP(ctx context.Context, name string) (string, error)

	// GetServerID returns the ID of the server with the given name.
	GetServerID(ctx context.Context, name string) (string, error)

	// PoweroffServer powers off the server and waits until it reports
	// the off state. Required before taking a consistent snapshot.
	PoweroffServer(ctx context.Context, serverID string) error

	// GetServersByLabel returns all servers matching the given labels.
	GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
}

// SnapshotManager manages golden image snapshots.
type SnapshotManager interface {
	// CreateSnapshot snapshots the server and waits for the image to
	// become available. Returns the image ID.
	CreateSnapshot(ctx context.Context, serverID, description string, labels map[string]string) (string, error)

	// DeleteImage deletes the image with the given ID. Deleting an
	// image that does not exist is not an error.
	DeleteImage(ctx context.Context, imageID string) error

	// GetSnapshotByLabels returns the most recently created snapshot
	// matching the given labels, or nil if none exists.
	GetSnapshotByLabels(ctx context.Context, labels map[string]string) (*hcloud.Image, error)

	// ListSnapshots returns all snapshots matching the given labels,
	// newest first.
	ListSnapshots(ctx context.Context, labels map[string]string) ([]*hcloud.Image, error)
}

// SSHKeyManager manages ephemeral SSH keys used during image builds.
type SSHKeyManager interface {
	// CreateSSHKey registers a public key and returns its ID.
	CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, error)

	// DeleteSSHKey deletes the key with the given name. Deleting a key
	// that does not exist is not an error.
	DeleteSSHKey(ctx context.Context, name string) error

	// GetSSHKey returns the key with the given name, or nil if it does
	// not exist.
	GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error)
}

// FirewallManager looks up firewalls referenced by environment definitions.
type FirewallManager interface {
	// GetFirewall returns the firewall with the given name, or nil if
	// it does not exist.
	GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error)
}

// Cleaner removes leftover resources by label.
type Cleaner interface {
	// CleanupByLabel deletes all managed resources matching the given
	// labels, in dependency order.
	CleanupByLabel(ctx context.Context, labels map[string]string) error
}

// InfrastructureManager combines all Hetzner Cloud capabilities stagehand
// needs. Consumers should depend on the narrowest interface that covers
// their use; this composite exists for wiring.
type InfrastructureManager interface {
	ServerProvisioner
	SnapshotManager
	SSHKeyManager
	FirewallManager
	Cleaner
}
