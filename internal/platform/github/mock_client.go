package github

import (
	"context"
	"io"
	"strings"
)

// MockClient is a configurable test double for the GitHub capability
// interfaces. Zero-value behavior returns an open pull request on the
// mocked repository so happy-path tests need no setup.
type MockClient struct {
	GetPullRequestFunc  func(ctx context.Context, number int) (*PullRequest, error)
	CreateCommentFunc   func(ctx context.Context, number int, body string) error
	DownloadTarballFunc func(ctx context.Context, ref string) (io.ReadCloser, error)
	PingFunc            func(ctx context.Context) error

	// Comments records every body passed to CreateComment.
	Comments []string
}

var (
	_ PullRequestService  = (*MockClient)(nil)
	_ IssueCommentService = (*MockClient)(nil)
	_ TarballDownloader   = (*MockClient)(nil)
)

func (m *MockClient) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	if m.GetPullRequestFunc != nil {
		return m.GetPullRequestFunc(ctx, number)
	}
	return &PullRequest{
		Number:   number,
		Title:    "mock pull request",
		State:    "open",
		HeadRef:  "feature/mock",
		HeadSHA:  "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		HeadRepo: "mock-org/mock-repo",
		Author:   "mock-user",
	}, nil
}

func (m *MockClient) CreateComment(ctx context.Context, number int, body string) error {
	m.Comments = append(m.Comments, body)
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, number, body)
	}
	return nil
}

func (m *MockClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockClient) DownloadTarball(ctx context.Context, ref string) (io.ReadCloser, error) {
	if m.DownloadTarballFunc != nil {
		return m.DownloadTarballFunc(ctx, ref)
	}
	return io.NopCloser(strings.NewReader("mock tarball")), nil
}
