package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"dialpad/internal/dialer"
	"dialpad/internal/engine"
	"dialpad/internal/event"
	"dialpad/internal/nav"
	"dialpad/internal/update"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

type fakeEngine struct {
	mu          sync.Mutex
	calls       []string
	transfers   []string
	hangups     int
	uploads     int
	state       engine.CallState
	video       bool
	transferErr error

	updates *event.Mailbox[update.Notice]
	logs    *event.Mailbox[string]
}

func (f *fakeEngine) Call(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)
	return nil
}

func (f *fakeEngine) Transfer(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transfers = append(f.transfers, address)
	return nil
}

func (f *fakeEngine) Hangup(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hangups++
	return nil
}

func (f *fakeEngine) UploadLogs() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
}

func (f *fakeEngine) VideoAutoInitiate() bool                        { return f.video }
func (f *fakeEngine) State() engine.CallState                        { return f.state }
func (f *fakeEngine) UpdateAvailable() *event.Mailbox[update.Notice] { return f.updates }
func (f *fakeEngine) UploadFinished() *event.Mailbox[string]         { return f.logs }

// fakePrefs serves both the view-model and the screen.
type fakePrefs struct {
	callRightAway bool
	debugLogs     bool
	setErr        error
	writes        []bool
}

func (p *fakePrefs) DebugPopupCode() string { return "#1234#" }
func (p *fakePrefs) CallRightAway() bool    { return p.callRightAway }
func (p *fakePrefs) DebugLogs() bool        { return p.debugLogs }

func (p *fakePrefs) SetDebugLogs(enabled bool) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.writes = append(p.writes, enabled)
	p.debugLogs = enabled
	return nil
}

type fakeThrottle struct {
	checks []time.Time
}

func (f *fakeThrottle) MaybeCheck(now time.Time) bool {
	f.checks = append(f.checks, now)
	return true
}

type fakeBrowser struct {
	urls []string
	err  error
}

func (b *fakeBrowser) Open(url string) error {
	if b.err != nil {
		return b.err
	}
	b.urls = append(b.urls, url)
	return nil
}

type fakeClipboard struct {
	texts []string
	err   error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

type fakeNavigator struct {
	dests []nav.Destination
	err   error
}

func (n *fakeNavigator) Navigate(dest nav.Destination) error {
	if n.err != nil {
		return n.err
	}
	n.dests = append(n.dests, dest)
	return nil
}

// harness bundles an App with every fake it talks to.
type harness struct {
	app       *App
	engine    *fakeEngine
	prefs     *fakePrefs
	throttle  *fakeThrottle
	browser   *fakeBrowser
	clipboard *fakeClipboard
	navigator *fakeNavigator
	calls     *event.Mailbox[engine.CallUpdate]
	shared    *dialer.SharedState
	logging   []bool
	clock     time.Time
}

func newHarness(t *testing.T, args dialer.Args, configure ...func(*harness)) *harness {
	t.Helper()
	h := &harness{
		engine: &fakeEngine{
			state:   engine.StateIdle,
			updates: event.NewMailbox[update.Notice](1),
			logs:    event.NewMailbox[string](1),
		},
		prefs:     &fakePrefs{},
		throttle:  &fakeThrottle{},
		browser:   &fakeBrowser{},
		clipboard: &fakeClipboard{},
		navigator: &fakeNavigator{},
		calls:     event.NewMailbox[engine.CallUpdate](4),
		shared:    &dialer.SharedState{},
		clock:     time.Unix(87000, 0),
	}
	for _, fn := range configure {
		fn(h)
	}

	app, err := NewApp(Config{
		Dialer:      dialer.NewViewModel(h.engine, h.prefs),
		Shared:      h.shared,
		Args:        args,
		Throttle:    h.throttle,
		Preferences: h.prefs,
		Navigator:   h.navigator,
		CallUpdates: h.calls,
		Browser:     h.browser,
		Clipboard:   h.clipboard,
		Version:     "5.2.0",
		SetLogging: func(enabled bool) error {
			h.logging = append(h.logging, enabled)
			return nil
		},
		Now: func() time.Time { return h.clock },
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	h.app = app
	return h
}

// send feeds msg to the app and returns the follow-up command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	model, cmd := h.app.Update(msg)
	h.app = model.(*App)
	return cmd
}

// sendAndRun feeds msg and then feeds back the message produced by the
// resulting command. Only use it for commands that do not wait on mailboxes.
func (h *harness) sendAndRun(msg tea.Msg) {
	if cmd := h.send(msg); cmd != nil {
		if next := cmd(); next != nil {
			h.send(next)
		}
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) deliverUpdate(t *testing.T) *event.Event[update.Notice] {
	t.Helper()
	ev := receive(t, h.app.updateCh)
	h.send(updateAvailableMsg{ev: ev, ch: h.app.updateCh})
	return ev
}

func (h *harness) deliverUpload(t *testing.T) *event.Event[string] {
	t.Helper()
	ev := receive(t, h.app.uploadCh)
	h.send(uploadFinishedMsg{ev: ev, ch: h.app.uploadCh})
	return ev
}

func (h *harness) deliverCall(t *testing.T) {
	t.Helper()
	ev := receive(t, h.app.callCh)
	h.send(callUpdateMsg{ev: ev, ch: h.app.callCh})
}

func receive[T any](t *testing.T, ch <-chan *event.Event[T]) *event.Event[T] {
	t.Helper()
	if ch == nil {
		t.Fatal("screen is not subscribed")
	}
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func plainView(app *App) string {
	return plainString(app.View())
}

func plainString(s string) string {
	return ansi.Strip(s)
}
