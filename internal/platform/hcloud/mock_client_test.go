package hcloud

import (
	"context"
	"errors"
	"testing"
)

func TestMockClient_Defaults(t *testing.T) {
	m := &MockClient{}
	ctx := context.Background()

	id, err := m.CreateServer(ctx, ServerCreateOpts{Name: "test"})
	if err != nil || id != "mock-id" {
		t.Errorf("CreateServer default = (%q, %v), want (mock-id, nil)", id, err)
	}

	ip, err := m.GetServerIP(ctx, "test")
	if err != nil || ip != "127.0.0.1" {
		t.Errorf("GetServerIP default = (%q, %v), want (127.0.0.1, nil)", ip, err)
	}

	snap, err := m.CreateSnapshot(ctx, "123", "desc", nil)
	if err != nil || snap != "mock-image-id" {
		t.Errorf("CreateSnapshot default = (%q, %v), want (mock-image-id, nil)", snap, err)
	}

	if err := m.DeleteServer(ctx, "test"); err != nil {
		t.Errorf("DeleteServer default error: %v", err)
	}
	if err := m.CleanupByLabel(ctx, nil); err != nil {
		t.Errorf("CleanupByLabel default error: %v", err)
	}

	image, err := m.GetSnapshotByLabels(ctx, nil)
	if err != nil || image != nil {
		t.Errorf("GetSnapshotByLabels default = (%v, %v), want (nil, nil)", image, err)
	}
}

func TestMockClient_CustomFuncs(t *testing.T) {
	expectedErr := errors.New("custom error")
	m := &MockClient{
		CreateServerFunc: func(_ context.Context, opts ServerCreateOpts) (string, error) {
			if opts.Name != "build-server" {
				t.Errorf("expected name 'build-server', got %q", opts.Name)
			}
			return "", expectedErr
		},
	}

	_, err := m.CreateServer(context.Background(), ServerCreateOpts{Name: "build-server"})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected custom error, got %v", err)
	}
}
