package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"dialpad/internal/config"
	"dialpad/internal/dialer"
	"dialpad/internal/engine"
	"dialpad/internal/prefs"
	"dialpad/internal/ui"
	"dialpad/internal/update"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSignaler struct {
	mu      sync.Mutex
	invites []string
	byes    int
}

func (f *fakeSignaler) Invite(_ context.Context, target string, progress func(engine.Progress)) error {
	f.mu.Lock()
	f.invites = append(f.invites, target)
	f.mu.Unlock()
	progress(engine.ProgressAnswered)
	return nil
}

func (f *fakeSignaler) Refer(context.Context, string) error { return nil }
func (f *fakeSignaler) Close() error                        { return nil }

func (f *fakeSignaler) Bye(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byes++
	return nil
}

func (f *fakeSignaler) Invites() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invites...)
}

type fakeChecker struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeChecker) Check(_ context.Context, url, _ string) (*update.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return nil, nil
}

func (f *fakeChecker) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// scriptedProgram starts the screen and feeds it key presses instead of
// running a terminal.
type scriptedProgram struct {
	app  *ui.App
	keys []tea.KeyMsg
}

func (p *scriptedProgram) Run() (tea.Model, error) {
	p.app.Init()
	var model tea.Model = p.app
	for _, k := range p.keys {
		model, _ = model.Update(k)
	}
	return model, nil
}

func TestVersionFlagPrintsVersion(t *testing.T) {
	cmd := newRootCmd(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "dialpad version ") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRootCmdRejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd(nil)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"alice", "bob"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for two positional URIs")
	}
}

func TestConfigOverridesOnlyExplicitFlags(t *testing.T) {
	cmd := newRootCmd(nil)
	if err := cmd.Flags().Parse([]string{
		"--check-url", "https://example.com/version.json",
		"--check-interval", "60",
		"--call-right-away",
		"--debug",
		"--uri", "alice",
	}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := configOverrides(cmd.Flags())
	want := map[string]any{
		config.KeyUpdateCheckURL:      "https://example.com/version.json",
		config.KeyUpdateCheckInterval: int64(60),
		config.KeyCallRightAway:       true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d overrides, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("override %s = %#v, want %#v", k, got[k], v)
		}
	}
}

func TestConfigOverridesEmptyWhenNothingSet(t *testing.T) {
	cmd := newRootCmd(nil)
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := configOverrides(cmd.Flags()); len(got) != 0 {
		t.Fatalf("expected no overrides, got %v", got)
	}
}

func TestScreenArgs(t *testing.T) {
	tests := []struct {
		name         string
		flags        []string
		positional   []string
		wantTransfer *bool
		wantURI      *string
		wantSkip     bool
	}{
		{name: "nothing supplied"},
		{name: "explicit transfer false", flags: []string{"--transfer=false"}, wantTransfer: ptr(false)},
		{name: "transfer", flags: []string{"--transfer"}, wantTransfer: ptr(true)},
		{name: "positional uri", positional: []string{"alice"}, wantURI: ptr("alice")},
		{name: "flag beats positional", flags: []string{"--uri", "bob"}, positional: []string{"alice"}, wantURI: ptr("bob")},
		{name: "explicit empty uri", flags: []string{"--uri="}, wantURI: ptr("")},
		{name: "skip auto call", flags: []string{"--skip-auto-call"}, wantSkip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newRootCmd(nil).Flags()
			if err := fs.Parse(tt.flags); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			args := screenArgs(fs, tt.positional)
			assertBoolPtr(t, "Transfer", args.Transfer, tt.wantTransfer)
			assertStringPtr(t, "URI", args.URI, tt.wantURI)
			if args.SkipAutoCallStart != tt.wantSkip {
				t.Fatalf("SkipAutoCallStart = %t, want %t", args.SkipAutoCallStart, tt.wantSkip)
			}
		})
	}
}

func TestRunWiresSession(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cleanup := config.ResetForTesting(t)
	defer cleanup()

	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	mustSet(t, config.KeyPreferencesPath, dbPath)
	mustSet(t, config.KeyUpdateCheckURL, "https://updates.example.com/version.json")
	mustSet(t, config.KeyCallRightAway, true)

	sig := &fakeSignaler{}
	checker := &fakeChecker{}
	uri := "bob@example.com"
	now := time.Unix(1_800_000_000, 0)

	var prog *scriptedProgram
	factory := func(app *ui.App) programRunner {
		prog = &scriptedProgram{app: app, keys: []tea.KeyMsg{
			{Type: tea.KeyRunes, Runes: []rune("alice")},
			{Type: tea.KeyCtrlN},
		}}
		return prog
	}

	var out bytes.Buffer
	err := run(context.Background(), sessionOptions{
		Args:          dialer.Args{URI: &uri},
		EngineOptions: []engine.Option{engine.WithSignaler(sig), engine.WithChecker(checker)},
		UI: func(cfg *ui.Config) {
			cfg.Now = func() time.Time { return now }
		},
	}, "", factory, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if prog == nil {
		t.Fatal("program factory was not used")
	}

	if got := sig.Invites(); len(got) != 1 || got[0] != "sip:bob@example.com" {
		t.Fatalf("expected one INVITE to sip:bob@example.com, got %v", got)
	}
	if got := checker.URLs(); len(got) != 1 || got[0] != "https://updates.example.com/version.json" {
		t.Fatalf("expected one update check, got %v", got)
	}
	if got := out.String(); got != "open contact/new?uri=alice\n" {
		t.Fatalf("unexpected output %q", got)
	}

	store, err := prefs.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen preferences: %v", err)
	}
	defer func() { _ = store.Close() }()
	last, err := store.Get(context.Background(), prefs.KeyLastUpdateCheck)
	if err != nil {
		t.Fatalf("read last check: %v", err)
	}
	if last != strconv.FormatInt(now.Unix(), 10) {
		t.Fatalf("last check = %q, want %d", last, now.Unix())
	}
}

func TestRunSkipsCheckWithinInterval(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cleanup := config.ResetForTesting(t)
	defer cleanup()

	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	mustSet(t, config.KeyPreferencesPath, dbPath)
	mustSet(t, config.KeyUpdateCheckURL, "https://updates.example.com/version.json")

	now := time.Unix(1_800_000_000, 0)
	store, err := prefs.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	recent := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)
	if err := store.Set(context.Background(), prefs.KeyLastUpdateCheck, recent); err != nil {
		t.Fatalf("seed last check: %v", err)
	}
	_ = store.Close()

	checker := &fakeChecker{}
	factory := func(app *ui.App) programRunner {
		return &scriptedProgram{app: app}
	}
	err = run(context.Background(), sessionOptions{
		EngineOptions: []engine.Option{engine.WithSignaler(&fakeSignaler{}), engine.WithChecker(checker)},
		UI: func(cfg *ui.Config) {
			cfg.Now = func() time.Time { return now }
		},
	}, "", factory, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := checker.URLs(); len(got) != 0 {
		t.Fatalf("expected no check within the interval, got %v", got)
	}
}

func TestRunRejectsNilFactory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cleanup := config.ResetForTesting(t)
	defer cleanup()
	mustSet(t, config.KeyPreferencesPath, filepath.Join(t.TempDir(), "prefs.db"))

	err := run(context.Background(), sessionOptions{
		EngineOptions: []engine.Option{engine.WithSignaler(&fakeSignaler{})},
	}, "", nil, io.Discard)
	if err == nil {
		t.Fatal("expected error for nil program factory")
	}
}

func TestServeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dialpad_test_total",
		Help: "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Inc()

	addr, stop, err := serveMetrics("127.0.0.1:0", reg)
	if err != nil {
		t.Fatalf("serveMetrics: %v", err)
	}
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "dialpad_test_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}

func mustSet(t *testing.T, key string, value any) {
	t.Helper()
	if err := config.Set(key, value); err != nil {
		t.Fatalf("config.Set(%s): %v", key, err)
	}
}

func assertBoolPtr(t *testing.T, name string, got, want *bool) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Fatalf("%s = %v, want %v", name, got, want)
	case *got != *want:
		t.Fatalf("%s = %t, want %t", name, *got, *want)
	}
}

func assertStringPtr(t *testing.T, name string, got, want *string) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Fatalf("%s = %v, want %v", name, got, want)
	case *got != *want:
		t.Fatalf("%s = %q, want %q", name, *got, *want)
	}
}

func ptr[T any](v T) *T { return &v }
