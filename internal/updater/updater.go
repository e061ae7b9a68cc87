// Package updater checks GitHub for a newer release of the agent.
//
// The check is best-effort: network and decode failures are reported as
// "no update" so callers never block startup on it.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// githubRepo is the repository path for API calls.
	githubRepo = "HendryAvila/bibly"

	// ReleaseURL is the GitHub API endpoint for the latest release.
	ReleaseURL = "https://api.github.com/repos/" + githubRepo + "/releases/latest"

	// checkTimeout is how long we wait for the GitHub API.
	checkTimeout = 10 * time.Second
)

// release holds the relevant fields from a GitHub release.
type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Result is the outcome of a version check.
type Result struct {
	// CurrentVersion is the running version (e.g. "1.0.0").
	CurrentVersion string
	// LatestVersion is the newest release, empty when the check failed.
	LatestVersion string
	// UpdateAvailable is true when latest > current.
	UpdateAvailable bool
	// ReleaseURL is the GitHub page for the release.
	ReleaseURL string
}

// Checker queries a release endpoint.
type Checker struct {
	endpoint string
	client   *http.Client
}

// NewChecker creates a Checker for endpoint. An empty endpoint means
// ReleaseURL; a nil client gets a default with a short timeout.
func NewChecker(endpoint string, client *http.Client) *Checker {
	if endpoint == "" {
		endpoint = ReleaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: checkTimeout}
	}
	return &Checker{endpoint: endpoint, client: client}
}

// Check compares currentVersion against the latest release.
func (c *Checker) Check(ctx context.Context, currentVersion string) *Result {
	result := &Result{CurrentVersion: normalizeVersion(currentVersion)}

	rel, err := c.latest(ctx, currentVersion)
	if err != nil {
		return result
	}

	result.LatestVersion = normalizeVersion(rel.TagName)
	result.ReleaseURL = rel.HTMLURL
	result.UpdateAvailable = isNewer(result.CurrentVersion, result.LatestVersion)
	return result
}

func (c *Checker) latest(ctx context.Context, currentVersion string) (*release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "bibly/"+currentVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("parsing release info: %w", err)
	}
	return &rel, nil
}

// normalizeVersion strips the leading "v" from version strings.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer reports whether latest is a higher major.minor.patch than
// current. Development builds never report an update.
func isNewer(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}

	c, l := versionParts(current), versionParts(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

// versionParts splits a version into three numeric parts. Missing parts
// are zero; a part's non-numeric suffix ("3rc1") is ignored.
func versionParts(v string) [3]int {
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		out[i], _ = strconv.Atoi(part[:end])
	}
	return out
}
