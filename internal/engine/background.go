package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	apperrors "dialpad/internal/errors"
)

const maxUploadResponseBytes = 16 << 10

// CheckForUpdate starts a background check of the configured descriptor
// against version. A newer version is posted to UpdateAvailable; failures
// are only logged.
func (c *Core) CheckForUpdate(version string) {
	url := c.updateURL()
	if url == "" {
		c.log.Logf("update check skipped: no check url")
		return
	}
	c.metrics.UpdateChecks.Inc()

	c.spawn(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.UpdateTimeout)
		defer cancel()

		info, err := c.checker.Check(ctx, url, version)
		if err != nil {
			c.log.Warnf("update check failed: %v", err)
			return
		}
		if info == nil || !info.UpdateAvailable {
			c.log.Logf("no update available for %s", version)
			return
		}
		c.metrics.UpdatesAvailable.Inc()
		notice := info.Notice()
		if !c.updateAvailable.Post(notice) {
			c.log.Logf("update %s available but nobody is listening", notice.Version)
		}
	})
}

// UploadLogs sends the debug log to the configured upload endpoint in the
// background and posts the resulting URL to UploadFinished.
func (c *Core) UploadLogs() {
	c.spawn(func(ctx context.Context) {
		url, err := c.uploadLogs(ctx)
		if err != nil {
			c.metrics.LogUploads.WithLabelValues("failed").Inc()
			c.log.Warnf("log upload failed: %v", err)
			return
		}
		c.metrics.LogUploads.WithLabelValues("ok").Inc()
		if !c.uploadFinished.Post(url) {
			c.log.Logf("log upload finished but nobody is listening")
		}
	})
}

func (c *Core) uploadLogs(ctx context.Context) (string, error) {
	endpoint := strings.TrimSpace(c.cfg.LogsUploadURL)
	if endpoint == "" {
		return "", apperrors.New(apperrors.CodeUploadFailed, "no logs upload url configured", nil)
	}
	path, err := c.logPath()
	if err != nil {
		return "", apperrors.New(apperrors.CodeUploadFailed, "locate debug log", err)
	}
	//nolint:gosec // G304: Log path is computed from user home, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.New(apperrors.CodeUploadFailed, "read debug log", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", apperrors.New(apperrors.CodeUploadFailed, "create upload request", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("User-Agent", userAgentName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.New(apperrors.CodeUploadFailed, "upload debug log", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadResponseBytes))
	if err != nil {
		return "", apperrors.New(apperrors.CodeUploadFailed, "read upload response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.New(apperrors.CodeUploadFailed, fmt.Sprintf("upload rejected with status %d", resp.StatusCode), nil)
	}
	url := parseUploadURL(body)
	if url == "" {
		return "", apperrors.New(apperrors.CodeUploadFailed, "upload response has no url", nil)
	}
	return url, nil
}

// parseUploadURL accepts either {"url": "..."} or a bare URL body.
func parseUploadURL(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			return strings.TrimSpace(payload.URL)
		}
		return ""
	}
	return string(trimmed)
}
