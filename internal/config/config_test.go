package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitializeLoadsDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.yaml")

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyUpdateCheckURL); got != "" {
		t.Fatalf("expected default %s to be empty, got %q", KeyUpdateCheckURL, got)
	}
	if got := GetInt(KeyUpdateCheckInterval); got != DefaultUpdateCheckIntervalSeconds {
		t.Fatalf("expected default %s = %d, got %d", KeyUpdateCheckInterval, DefaultUpdateCheckIntervalSeconds, got)
	}
	if got := GetString(KeyDebugPopupCode); got != "#1234#" {
		t.Fatalf("expected default popup code #1234#, got %q", got)
	}
	if GetBool(KeyCallRightAway) {
		t.Fatalf("expected default %s to be false", KeyCallRightAway)
	}
	if got := GetDuration(KeyUpdateTimeout); got != 5*time.Second {
		t.Fatalf("expected default %s = 5s, got %v", KeyUpdateTimeout, got)
	}
	if got := GetString(KeySIPTransport); got != "udp" {
		t.Fatalf("expected default transport udp, got %q", got)
	}
}

func TestProjectConfigOverridesUser(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "repo")
	projectCfg := filepath.Join(projectDir, ".dialpad", "config.yaml")
	writeFile(t, projectCfg, `
update:
  check-url: https://project.example.com/version.json
sip:
  domain: pbx.project.example.com
`)

	userCfg := filepath.Join(tmp, "user.yaml")
	writeFile(t, userCfg, `
update:
  check-url: https://user.example.com/version.json
  check-interval-seconds: 3600
sip:
  domain: pbx.user.example.com
call:
  right-away: true
`)

	if err := Initialize(
		WithWorkingDir(filepath.Join(projectDir, "nested")),
		WithUserConfig(userCfg),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyUpdateCheckURL); got != "https://project.example.com/version.json" {
		t.Fatalf("expected project config to win for %s, got %q", KeyUpdateCheckURL, got)
	}
	if got := GetString(KeySIPDomain); got != "pbx.project.example.com" {
		t.Fatalf("expected project sip domain, got %q", got)
	}
	if got := GetInt(KeyUpdateCheckInterval); got != 3600 {
		t.Fatalf("expected user interval to survive merge, got %d", got)
	}
	if !GetBool(KeyCallRightAway) {
		t.Fatalf("expected call.right-away from user config")
	}
}

func TestEnvironmentAndOverridesPrecedence(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectCfg := filepath.Join(tmp, ".dialpad", "config.yaml")
	writeFile(t, projectCfg, `
debug:
  popup-code: "*0000#"
update:
  check-interval-seconds: 60
`)

	t.Setenv("DP_DEBUG_POPUP_CODE", "#9999#")
	t.Setenv("DP_UPDATE_CHECK_URL", "https://env.example.com/v")

	if err := Initialize(
		WithWorkingDir(tmp),
		WithProjectConfig(projectCfg),
		WithUserConfig(filepath.Join(tmp, "missing.yaml")),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyDebugPopupCode); got != "#9999#" {
		t.Fatalf("expected environment variable to override %s, got %q", KeyDebugPopupCode, got)
	}
	if got := GetString(KeyUpdateCheckURL); got != "https://env.example.com/v" {
		t.Fatalf("expected env override for %s, got %q", KeyUpdateCheckURL, got)
	}

	overrides := map[string]any{
		KeyUpdateCheckInterval: 120,
		KeyCallRightAway:       true,
	}
	if err := ApplyOverrides(overrides); err != nil {
		t.Fatalf("ApplyOverrides returned error: %v", err)
	}

	if got := GetInt(KeyUpdateCheckInterval); got != 120 {
		t.Fatalf("expected CLI override for %s, got %d", KeyUpdateCheckInterval, got)
	}
	if !GetBool(KeyCallRightAway) {
		t.Fatalf("expected CLI override to set %s=true", KeyCallRightAway)
	}
}

func TestConfigPathIsDirectoryFails(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.yaml")
	mustMkdir(t, userCfg)

	if err := Initialize(WithWorkingDir(tmp), WithUserConfig(userCfg)); err == nil {
		t.Fatal("expected error when user config path is a directory")
	}
}

func TestSetAtRuntime(t *testing.T) {
	cleanup := ResetForTesting(t)
	defer cleanup()

	if err := Set(KeyLogsUploadURL, "https://logs.example.com/upload"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := GetString(KeyLogsUploadURL); got != "https://logs.example.com/upload" {
		t.Fatalf("expected runtime value, got %q", got)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
