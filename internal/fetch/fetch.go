// Package fetch talks to the GitHub releases API and downloads release
// assets over HTTP.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultAPIBaseURL is the GitHub REST API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"

	// releasesPerPage is the page size used when walking a repository's
	// releases. 100 is the maximum GitHub accepts.
	releasesPerPage = 100

	defaultTimeout = 30 * time.Second
)

// Release is the subset of the GitHub release payload that this tool uses.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is the subset of the GitHub release asset payload that this tool
// uses.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// TokenFromEnv returns the GitHub API token from YB_LLVM_GITHUB_TOKEN or
// GITHUB_TOKEN, preferring the tool-specific variable.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("YB_LLVM_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// APIBaseFromEnv returns the GitHub API endpoint, honoring the
// YB_LLVM_GITHUB_API_URL override used by tests and GitHub Enterprise
// setups.
func APIBaseFromEnv() string {
	if base := strings.TrimSpace(os.Getenv("YB_LLVM_GITHUB_API_URL")); base != "" {
		return base
	}
	return DefaultAPIBaseURL
}

// Client issues GitHub API requests and asset downloads. The zero value
// works; NewClient fills in the usual defaults.
type Client struct {
	// APIBaseURL overrides the GitHub API endpoint, mainly for tests.
	APIBaseURL string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	// Token, when set, is sent as a bearer token to github.com hosts.
	Token string
	// UserAgent identifies this tool in request headers.
	UserAgent string
}

// NewClient returns a Client authenticated with token (empty for anonymous
// access).
func NewClient(token, userAgent string) *Client {
	return &Client{Token: token, UserAgent: userAgent}
}

func (c *Client) apiBaseURL() string {
	if c.APIBaseURL != "" {
		return strings.TrimRight(c.APIBaseURL, "/")
	}
	return DefaultAPIBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// get issues an authenticated GET request. The bearer token is only attached
// for the API host and github.com downloads, never for arbitrary mirrors.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" && c.trustedHost(rawURL) {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.httpClient().Do(req)
}

func (c *Client) trustedHost(rawURL string) bool {
	return strings.Contains(rawURL, "github.com") ||
		strings.HasPrefix(rawURL, c.apiBaseURL())
}

// Releases walks every release of repo ("owner/name"), newest first, across
// all pages of the API.
func (c *Client) Releases(ctx context.Context, repo string) ([]Release, error) {
	var releases []Release
	for page := 1; ; page++ {
		pageURL := fmt.Sprintf("%s/repos/%s/releases?per_page=%d&page=%d",
			c.apiBaseURL(), repo, releasesPerPage, page)
		batch, err := c.releasesPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("list releases of %s (page %d): %w", repo, page, err)
		}
		releases = append(releases, batch...)
		if len(batch) < releasesPerPage {
			return releases, nil
		}
	}
}

func (c *Client) releasesPage(ctx context.Context, pageURL string) ([]Release, error) {
	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var batch []Release
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return batch, nil
}

// Fetch retrieves a small file, such as a checksum companion, into memory.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, apiError(resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return data, nil
}

// Download streams rawURL into the file at path, returning the number of
// bytes written.
func (c *Client) Download(ctx context.Context, rawURL, path string) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: %w", rawURL, apiError(resp))
	}

	f, err := os.Create(path) // #nosec G304 -- path is inside a caller-owned temp dir
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", path, err)
	}
	return n, nil
}

// apiError renders a non-200 response, keeping a short body excerpt so rate
// limit and permission messages from GitHub stay visible.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	excerpt := strings.TrimSpace(string(body))
	if excerpt == "" {
		return fmt.Errorf("status %s", resp.Status)
	}
	return fmt.Errorf("status %s: %s", resp.Status, excerpt)
}

// RepoFromURL extracts "owner/name" from a GitHub web or download URL, or
// returns an error when the URL does not name a repository.
func RepoFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("no owner/name in URL %s", rawURL)
	}
	return parts[0] + "/" + parts[1], nil
}
