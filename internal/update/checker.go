package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single descriptor request.
const DefaultTimeout = 5 * time.Second

// maxDescriptorBytes caps how much of the descriptor body is read.
const maxDescriptorBytes = 64 << 10

// Error variables for specific error conditions.
var (
	ErrNetworkFailure = fmt.Errorf("network request failed")
	ErrRateLimited    = fmt.Errorf("rate limited by update server")
	ErrInvalidVersion = fmt.Errorf("invalid version format")
	ErrNoURL          = fmt.Errorf("update descriptor has no download url")
)

// Descriptor is the JSON document served at the configured check URL.
//
//	{"version": "5.2.1", "url": "https://example.com/download", "notes": "..."}
type Descriptor struct {
	Version string `json:"version"`
	URL     string `json:"url"`
	Notes   string `json:"notes,omitempty"`
}

// Notice tells the dialer screen that a newer build can be downloaded.
// URL is what the update dialog opens; Version and Notes are informational.
type Notice struct {
	URL     string
	Version string
	Notes   string
}

// Info contains the result of a version check.
type Info struct {
	CurrentVersion  Version
	LatestVersion   Version
	UpdateAvailable bool
	DownloadURL     string
	ReleaseNotes    string
	CheckedAt       time.Time
}

// Notice converts a positive check result into the event the screen consumes.
func (i *Info) Notice() Notice {
	return Notice{
		URL:     i.DownloadURL,
		Version: i.LatestVersion.String(),
		Notes:   i.ReleaseNotes,
	}
}

// Checker fetches update descriptors over HTTP.
type Checker struct {
	httpClient *http.Client
	userAgent  string
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithHTTPClient sets a custom HTTP client for the checker.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) CheckerOption {
	return func(c *Checker) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with requests.
func WithUserAgent(ua string) CheckerOption {
	return func(c *Checker) {
		c.userAgent = ua
	}
}

// NewChecker creates a new descriptor checker.
func NewChecker(opts ...CheckerOption) *Checker {
	c := &Checker{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "dialpad-update-checker",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check fetches the descriptor at url and compares it to currentVersion.
// Returns nil without error for development builds or if the current version
// cannot be parsed.
func (c *Checker) Check(ctx context.Context, url, currentVersion string) (*Info, error) {
	if isDevBuild(currentVersion) {
		return nil, nil
	}
	current, err := ParseVersion(currentVersion)
	if err != nil {
		return nil, nil
	}

	desc, err := c.fetchDescriptor(ctx, url)
	if err != nil {
		return nil, err
	}

	latest, err := ParseVersion(desc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, desc.Version)
	}
	if strings.TrimSpace(desc.URL) == "" {
		return nil, ErrNoURL
	}

	return &Info{
		CurrentVersion:  current,
		LatestVersion:   latest,
		UpdateAvailable: current.LessThan(latest),
		DownloadURL:     strings.TrimSpace(desc.URL),
		ReleaseNotes:    desc.Notes,
		CheckedAt:       time.Now(),
	}, nil
}

func (c *Checker) fetchDescriptor(ctx context.Context, url string) (*Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}

	var desc Descriptor
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDescriptorBytes)).Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &desc, nil
}

func isDevBuild(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "dev", "development":
		return true
	}
	return false
}
