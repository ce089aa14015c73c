// Package version reports the build version and checks GitHub for newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Release repository and API defaults.
const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 15 * time.Second
	Owner          = "mrz1836"
	Repo           = "phantom-sandbox"

	maxErrorBodySize    = 1024
	maxResponseBodySize = 64 * 1024
)

// Dev is reported when no version was stamped into the binary.
const Dev = "dev"

// ErrGitHubAPIFailed indicates a non-200 response from the releases API.
var ErrGitHubAPIFailed = errors.New("GitHub API request failed")

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current fills in a Build from linker-stamped values, falling back to the
// module and VCS metadata embedded by the Go toolchain.
func Current(version, commit, date string) Build {
	b := Build{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			b.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "" {
					b.Commit = s.Value
				}
			case "vcs.time":
				if b.Date == "" {
					b.Date = s.Value
				}
			}
		}
	}

	if b.Version == "" {
		b.Version = Dev
	}
	return b
}

// Release is the subset of a GitHub release the checker reads.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Check is the result of comparing the running version with the latest release.
type Check struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
	URL     string `json:"url,omitempty"`
	IsNewer bool   `json:"update_available"`
}

// Checker fetches the latest release of the sandbox.
type Checker struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Checker.
type Option func(*Checker)

// WithBaseURL points the checker at another API host.
func WithBaseURL(url string) Option {
	return func(c *Checker) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// NewChecker returns a Checker for the public GitHub API.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  fmt.Sprintf("%s (%s/%s)", Repo, runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the latest published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, Owner, Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // fixed GitHub API URL
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: status %d: %s", ErrGitHubAPIFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &release, nil
}

// Check compares current with the latest release.
func (c *Checker) Check(ctx context.Context, current string) (*Check, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &Check{
		Current: current,
		Latest:  release.TagName,
		URL:     release.HTMLURL,
		IsNewer: IsNewer(current, release.TagName),
	}, nil
}

// Canonical returns v as a canonical semantic version with a leading "v",
// or "" when v is not a release version.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// IsNewer reports whether latest is a newer release than current. A current
// version that is not a release, such as "dev" or a commit hash, is older
// than any release.
func IsNewer(current, latest string) bool {
	l := Canonical(latest)
	if l == "" {
		return false
	}
	c := Canonical(current)
	if c == "" {
		return true
	}
	return semver.Compare(l, c) > 0
}
