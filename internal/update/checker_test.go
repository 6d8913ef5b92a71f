package update

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func descriptorServer(t *testing.T, desc Descriptor) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "dialpad-update-checker" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(desc)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewCheckerWithOptions(t *testing.T) {
	customClient := &http.Client{Timeout: 10 * time.Second}
	c := NewChecker(WithHTTPClient(customClient), WithTimeout(time.Second))

	if c.httpClient != customClient {
		t.Fatal("custom HTTP client not applied")
	}
	if c.httpClient.Timeout != time.Second {
		t.Fatalf("timeout = %v, want 1s", c.httpClient.Timeout)
	}
	if NewChecker(WithHTTPClient(nil)).httpClient == nil {
		t.Fatal("nil client should keep the default")
	}
}

func TestCheckerSendsConfiguredUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_ = json.NewEncoder(w).Encode(Descriptor{Version: "5.2.1", URL: "https://example.com/download"})
	}))
	defer server.Close()

	if _, err := NewChecker(WithUserAgent("dialpad")).Check(context.Background(), server.URL, "5.2.1"); err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if got != "dialpad" {
		t.Fatalf("User-Agent = %q, want dialpad", got)
	}
}

func TestCheckerReportsNewerVersion(t *testing.T) {
	server := descriptorServer(t, Descriptor{
		Version: "5.3.0",
		URL:     "https://example.com/download",
		Notes:   "* Faster call setup",
	})

	info, err := NewChecker().Check(context.Background(), server.URL+"/version.json", "5.2.1")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !info.UpdateAvailable {
		t.Fatal("UpdateAvailable should be true when latest > current")
	}
	n := info.Notice()
	if n.URL != "https://example.com/download" {
		t.Errorf("Notice.URL = %q", n.URL)
	}
	if n.Version != "5.3.0" {
		t.Errorf("Notice.Version = %q", n.Version)
	}
	if n.Notes != "* Faster call setup" {
		t.Errorf("Notice.Notes = %q", n.Notes)
	}
	if info.CheckedAt.IsZero() {
		t.Error("CheckedAt should be set")
	}
}

func TestCheckerNoUpdateWhenCurrent(t *testing.T) {
	server := descriptorServer(t, Descriptor{Version: "5.2.1", URL: "https://example.com/download"})

	info, err := NewChecker().Check(context.Background(), server.URL, "v5.2.1")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if info.UpdateAvailable {
		t.Fatal("UpdateAvailable should be false when latest == current")
	}
}

func TestCheckerSkipsDevAndUnparseableVersions(t *testing.T) {
	c := NewChecker()
	for _, version := range []string{"", "dev", "development", "nightly"} {
		// The URL is never contacted for these versions.
		info, err := c.Check(context.Background(), "http://127.0.0.1:0/never", version)
		if err != nil {
			t.Errorf("Check(%q) unexpected error: %v", version, err)
		}
		if info != nil {
			t.Errorf("Check(%q) should return nil", version)
		}
	}
}

func TestCheckerErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			want:    ErrRateLimited,
		},
		{
			name:    "too many requests",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			want:    ErrRateLimited,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    ErrNetworkFailure,
		},
		{
			name: "bad latest version",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"version":"latest","url":"https://example.com"}`))
			},
			want: ErrInvalidVersion,
		},
		{
			name: "missing url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"version":"9.0.0"}`))
			},
			want: ErrNoURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewChecker().Check(context.Background(), server.URL, "1.0.0")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Check() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckerDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := NewChecker().Check(context.Background(), server.URL, "1.0.0")
	if err == nil || !strings.Contains(err.Error(), "decode descriptor") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestCheckerNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewChecker(WithTimeout(time.Second)).Check(context.Background(), url, "1.0.0")
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
}
