// Package release polls upstream dictionary repositories for new
// GitHub releases, compares them against a locally stored version
// record, and downloads fresh dictionary assets.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// apiBase is the GitHub REST API root. Tests point it at a local server.
const apiBase = "https://api.github.com"

// requestTimeout bounds a single releases-API call.
const requestTimeout = 30 * time.Second

var (
	// ErrNotFound reports an unknown repository.
	ErrNotFound = errors.New("repository not found")
	// ErrRateLimited reports GitHub API rate limiting; set GITHUB_TOKEN
	// to raise the limit.
	ErrRateLimited = errors.New("github api rate limited")
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

// Release is the subset of the GitHub release payload the checker uses.
type Release struct {
	Tag    string  `json:"tag_name"`
	Assets []Asset `json:"assets"`
}

// Client queries the GitHub releases API. The zero value is not usable;
// construct with NewClient.
type Client struct {
	http *http.Client
	base string
	log  *zap.Logger
}

// NewClient builds a release-API client. A nil httpClient falls back to
// http.DefaultClient. The GITHUB_TOKEN environment variable, when set,
// is sent as a bearer token.
func NewClient(httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: httpClient, base: apiBase, log: log}
}

// Latest fetches the newest release of owner/repo.
func (c *Client) Latest(ctx context.Context, owner, repo string) (*Release, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.base, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build release request: %w", err)
	}
	setGitHubHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release %s/%s: %w", owner, repo, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		c.log.Warn("github api rate limited",
			zap.String("repo", owner+"/"+repo),
			zap.String("reset", resp.Header.Get("X-RateLimit-Reset")))
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s/%s: %w", owner, repo, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch latest release %s/%s: unexpected status %s", owner, repo, resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release %s/%s: %w", owner, repo, err)
	}
	return &rel, nil
}

// setGitHubHeaders applies the API media type and optional token auth.
func setGitHubHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
