package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DownloadTarball streams the gzipped source archive for a git ref, usually
// a branch name or commit SHA. GitHub answers with a redirect to a short
// lived download URL which the HTTP client follows transparently. The caller
// owns the returned reader and must close it.
//
// The body is read incrementally while it is piped to the target instance,
// so the download runs on the stream client: a whole-response timeout would
// cut the archive off mid-extraction. The request context carries the
// deploy deadline and bounds the stream instead.
func (c *Client) DownloadTarball(ctx context.Context, ref string) (io.ReadCloser, error) {
	path := fmt.Sprintf("/repos/%s/%s/tarball/%s", c.owner, c.repo, url.PathEscape(ref))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download tarball for %q: %w", ref, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp.Body, nil
}
