package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is a configurable mock implementation of InfrastructureManager
// for tests. Unset functions return benign defaults.
type MockClient struct {
	CreateServerFunc      func(ctx context.Context, opts ServerCreateOpts) (string, error)
	DeleteServerFunc      func(ctx context.Context, name string) error
	GetServerIPFunc       func(ctx context.Context, name string) (string, error)
	GetServerIDFunc       func(ctx context.Context, name string) (string, error)
	PoweroffServerFunc    func(ctx context.Context, serverID string) error
	GetServersByLabelFunc func(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)

	CreateSnapshotFunc      func(ctx context.Context, serverID, description string, labels map[string]string) (string, error)
	DeleteImageFunc         func(ctx context.Context, imageID string) error
	GetSnapshotByLabelsFunc func(ctx context.Context, labels map[string]string) (*hcloud.Image, error)
	ListSnapshotsFunc       func(ctx context.Context, labels map[string]string) ([]*hcloud.Image, error)

	CreateSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (string, error)
	DeleteSSHKeyFunc func(ctx context.Context, name string) error
	GetSSHKeyFunc    func(ctx context.Context, name string) (*hcloud.SSHKey, error)

	GetFirewallFunc    func(ctx context.Context, name string) (*hcloud.Firewall, error)
	CleanupByLabelFunc func(ctx context.Context, labels map[string]string) error
}

var _ InfrastructureManager = (*MockClient)(nil)

func (m *MockClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (string, error) {
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, opts)
	}
	return "mock-id", nil
}

func (m *MockClient) DeleteServer(ctx context.Context, name string) error {
	if m.DeleteServerFunc != nil {
		return m.DeleteServerFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) GetServerIP(ctx context.Context, name string) (string, error) {
	if m.GetServerIPFunc != nil {
		return m.GetServerIPFunc(ctx, name)
	}
	return "127.0.0.1", nil
}

func (m *MockClient) GetServerID(ctx context.Context, name string) (string, error) {
	if m.GetServerIDFunc != nil {
		return m.GetServerIDFunc(ctx, name)
	}
	return "123", nil
}

func (m *MockClient) PoweroffServer(ctx context.Context, serverID string) error {
	if m.PoweroffServerFunc != nil {
		return m.PoweroffServerFunc(ctx, serverID)
	}
	return nil
}

func (m *MockClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	if m.GetServersByLabelFunc != nil {
		return m.GetServersByLabelFunc(ctx, labels)
	}
	return nil, nil
}

func (m *MockClient) CreateSnapshot(ctx context.Context, serverID, description string, labels map[string]string) (string, error) {
	if m.CreateSnapshotFunc != nil {
		return m.CreateSnapshotFunc(ctx, serverID, description, labels)
	}
	return "mock-image-id", nil
}

func (m *MockClient) DeleteImage(ctx context.Context, imageID string) error {
	if m.DeleteImageFunc != nil {
		return m.DeleteImageFunc(ctx, imageID)
	}
	return nil
}

func (m *MockClient) GetSnapshotByLabels(ctx context.Context, labels map[string]string) (*hcloud.Image, error) {
	if m.GetSnapshotByLabelsFunc != nil {
		return m.GetSnapshotByLabelsFunc(ctx, labels)
	}
	return nil, nil
}

func (m *MockClient) ListSnapshots(ctx context.Context, labels map[string]string) ([]*hcloud.Image, error) {
	if m.ListSnapshotsFunc != nil {
		return m.ListSnapshotsFunc(ctx, labels)
	}
	return nil, nil
}

func (m *MockClient) CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (string, error) {
	if m.CreateSSHKeyFunc != nil {
		return m.CreateSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return "mock-key-id", nil
}

func (m *MockClient) DeleteSSHKey(ctx context.Context, name string) error {
	if m.DeleteSSHKeyFunc != nil {
		return m.DeleteSSHKeyFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error) {
	if m.GetSSHKeyFunc != nil {
		return m.GetSSHKeyFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	if m.GetFirewallFunc != nil {
		return m.GetFirewallFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockClient) CleanupByLabel(ctx context.Context, labels map[string]string) error {
	if m.CleanupByLabelFunc != nil {
		return m.CleanupByLabelFunc(ctx, labels)
	}
	return nil
}
