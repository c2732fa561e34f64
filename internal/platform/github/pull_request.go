package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidRequest marks pull request references that can never produce a
// deployment: numbers that do not resolve, and heads living in a repository
// other than the one this pipeline serves. Callers fail fast on it instead
// of retrying.
var ErrInvalidRequest = errors.New("invalid pull request reference")

// PullRequest carries the fields of a pull request that the pipeline acts on.
type PullRequest struct {
	Number   int
	Title    string
	State    string
	Draft    bool
	HeadRef  string
	HeadSHA  string
	HeadRepo string
	Author   string
}

// GetPullRequest fetches a pull request by number. A 404 is reported as
// ErrInvalidRequest since the number cannot identify deployable work.
func (c *Client) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", c.owner, c.repo, number)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: pull request #%d not found in %s", ErrInvalidRequest, number, c.Repository())
	default:
		return nil, apiError(resp)
	}

	var raw struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		State  string `json:"state"`
		Draft  bool   `json:"draft"`
		Head   struct {
			Ref  string `json:"ref"`
			SHA  string `json:"sha"`
			Repo struct {
				FullName string `json:"full_name"`
			} `json:"repo"`
		} `json:"head"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode pull request #%d: %w", number, err)
	}

	return &PullRequest{
		Number:   raw.Number,
		Title:    raw.Title,
		State:    raw.State,
		Draft:    raw.Draft,
		HeadRef:  raw.Head.Ref,
		HeadSHA:  raw.Head.SHA,
		HeadRepo: raw.Head.Repo.FullName,
		Author:   raw.User.Login,
	}, nil
}

// Validate confirms a pull request is deployable from the given repository.
// Forks are rejected: their heads are not branches of the repository the
// environment definitions reference.
func Validate(pr *PullRequest, repository string) error {
	if pr == nil {
		return fmt.Errorf("%w: pull request not found", ErrInvalidRequest)
	}
	if pr.HeadRef == "" {
		return fmt.Errorf("%w: pull request #%d has no head branch", ErrInvalidRequest, pr.Number)
	}
	if !strings.EqualFold(pr.HeadRepo, repository) {
		return fmt.Errorf("%w: pull request #%d head is on %s, not %s",
			ErrInvalidRequest, pr.Number, pr.HeadRepo, repository)
	}
	return nil
}
