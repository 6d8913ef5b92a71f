package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	apperrors "dialpad/internal/errors"

	"github.com/atotto/clipboard"
)

// Opener shows a URL to the user, normally in the default web browser.
type Opener interface {
	Open(url string) error
}

// SystemBrowser opens URLs with the platform's default handler.
type SystemBrowser struct{}

// Open starts the platform opener without waiting for it.
func (SystemBrowser) Open(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return apperrors.New(apperrors.CodeBrowserFailed, "no url to open", nil)
	}
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return apperrors.New(apperrors.CodeBrowserFailed, "failed to open browser", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, apperrors.New(apperrors.CodeBrowserFailed, fmt.Sprintf("unsupported platform %s", goos), nil)
	}
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll replaces the clipboard contents.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
