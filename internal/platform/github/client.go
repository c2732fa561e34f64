package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	acceptHeader   = "application/vnd.github+json"
)

// PullRequestService resolves pull requests on the configured repository.
type PullRequestService interface {
	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)
}

// IssueCommentService posts comments on pull requests. GitHub treats pull
// requests as issues for commenting purposes.
type IssueCommentService interface {
	CreateComment(ctx context.Context, number int, body string) error
}

// TarballDownloader fetches the source archive for a git ref.
type TarballDownloader interface {
	DownloadTarball(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Client talks to the GitHub REST API for a single repository.
type Client struct {
	token   string
	owner   string
	repo    string
	baseURL string

	// httpClient serves the JSON endpoints under a whole-response
	// timeout. streamClient serves tarball downloads, whose body is
	// consumed long after the request returns; it carries no client
	// timeout, so only the request context bounds the stream.
	httpClient   *http.Client
	streamClient *http.Client
}

var (
	_ PullRequestService  = (*Client)(nil)
	_ IssueCommentService = (*Client)(nil)
	_ TarballDownloader   = (*Client)(nil)
)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API endpoint, typically an
// httptest server or a GitHub Enterprise installation.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP clients, for both the JSON
// endpoints and tarball streaming.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
		c.streamClient = httpClient
	}
}

// NewClient creates a client for the repository identified by "owner/repo".
func NewClient(token, repository string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("github token is required")
	}
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository %q is not in owner/repo form", repository)
	}

	c := &Client{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		streamClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Repository returns the configured repository in owner/repo form.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// Ping verifies the token can read the configured repository.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/repos/"+c.owner+"/"+c.repo, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach repository %s: %w", c.Repository(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("repository %s not found or token cannot see it", c.Repository())
	case http.StatusUnauthorized:
		return errors.New("github token is invalid or expired")
	default:
		return apiError(resp)
	}
}

// newRequest builds an API request with the standard GitHub headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	return req, nil
}

// apiError drains the response body and turns a non-success status into an
// error carrying GitHub's message.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("github API returned status %d: %s", resp.StatusCode, msg)
}
