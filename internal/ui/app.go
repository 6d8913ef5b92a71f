package ui

import (
	"context"
	"time"

	"dialpad/internal/debug"
	"dialpad/internal/dialer"
	"dialpad/internal/engine"
	apperrors "dialpad/internal/errors"
	"dialpad/internal/event"
	"dialpad/internal/nav"
	"dialpad/internal/update"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	callActionTimeout = 10 * time.Second
	minEntryWidth     = 20
)

// Throttle runs the rate-limited update check.
type Throttle interface {
	MaybeCheck(now time.Time) bool
}

// Preferences holds the debug popup's persisted switch.
type Preferences interface {
	DebugLogs() bool
	SetDebugLogs(enabled bool) error
}

// Navigator opens other screens.
type Navigator interface {
	Navigate(dest nav.Destination) error
}

// Config configures the dialer screen.
type Config struct {
	Dialer      *dialer.ViewModel
	Shared      *dialer.SharedState
	Args        dialer.Args
	Throttle    Throttle
	Preferences Preferences
	Navigator   Navigator
	CallUpdates *event.Mailbox[engine.CallUpdate]
	Browser     Opener
	Clipboard   Clipboard
	Version     string

	// SetLogging applies the debug logging switch at runtime. Defaults to debug.SetEnabled.
	SetLogging func(enabled bool) error
	// Now defaults to time.Now.
	Now func() time.Time
}

// App implements the Bubble Tea model for the dialer screen.
type App struct {
	vm          *dialer.ViewModel
	shared      *dialer.SharedState
	args        dialer.Args
	argsHandled bool
	throttle    Throttle
	prefs       Preferences
	navigator   Navigator
	callUpdates *event.Mailbox[engine.CallUpdate]
	browser     Opener
	clipboard   Clipboard
	setLogging  func(bool) error
	now         func() time.Time
	version     string
	log         debug.Logger

	keys  KeyMap
	input textinput.Model

	width  int
	height int
	active bool

	showHelp      bool
	debugOverlay  *DebugOverlay
	updateOverlay *UpdateOverlay
	toast         *toast
	toastTicking  bool

	uploadLogsInitiatedByUs bool
	callState               engine.CallState
	remote                  string

	updateCh     <-chan *event.Event[update.Notice]
	updateCancel func()
	uploadCh     <-chan *event.Event[string]
	uploadCancel func()
	callCh       <-chan *event.Event[engine.CallUpdate]
	callCancel   func()
}

// NewApp creates the dialer screen.
func NewApp(cfg Config) (*App, error) {
	if cfg.Dialer == nil {
		return nil, apperrors.New(apperrors.CodeConfigurationError, "dialer view-model is required", nil)
	}
	shared := cfg.Shared
	if shared == nil {
		shared = &dialer.SharedState{}
	}
	browser := cfg.Browser
	if browser == nil {
		browser = SystemBrowser{}
	}
	clip := cfg.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	setLogging := cfg.SetLogging
	if setLogging == nil {
		setLogging = debug.SetEnabled
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ti := textinput.New()
	ti.Prompt = "☎ "
	ti.Placeholder = "Number or SIP address"
	ti.Focus()

	return &App{
		vm:          cfg.Dialer,
		shared:      shared,
		args:        cfg.Args,
		throttle:    cfg.Throttle,
		prefs:       cfg.Preferences,
		navigator:   cfg.Navigator,
		callUpdates: cfg.CallUpdates,
		browser:     browser,
		clipboard:   clip,
		setLogging:  setLogging,
		now:         now,
		version:     cfg.Version,
		log:         debug.For("DialerScreen"),
		keys:        DefaultKeyMap(),
		input:       ti,
		callState:   engine.StateIdle,
	}, nil
}

// Init activates the screen when the program starts.
func (m *App) Init() tea.Cmd {
	return m.Activate()
}

// Activate runs every time the screen comes to the foreground. Arguments
// are applied on the first activation only; the update check throttle runs
// on every activation.
func (m *App) Activate() tea.Cmd {
	var cmds []tea.Cmd
	if !m.argsHandled {
		m.argsHandled = true
		res, err := m.vm.ApplyArgs(context.Background(), m.args, m.shared)
		m.args = dialer.Args{}
		if err != nil {
			cmds = append(cmds, m.showError(err))
		}
		if res.DebugPopup {
			m.openDebugOverlay()
		}
	}
	m.vm.TransferVisible = m.shared.PendingCallTransfer
	m.vm.RefreshVideoPolicy()
	m.uploadLogsInitiatedByUs = false
	m.callState = m.vm.CallState()
	m.subscribe()
	m.active = true

	if m.throttle != nil {
		m.throttle.MaybeCheck(m.now())
	}
	m.syncInput()

	cmds = append(cmds,
		waitForUpdate(m.updateCh),
		waitForUpload(m.uploadCh),
		waitForCall(m.callCh),
		textinput.Blink,
	)
	return tea.Batch(cmds...)
}

// Deactivate stops observing engine events. Events posted while the screen
// is in the background are dropped.
func (m *App) Deactivate() {
	m.unsubscribe()
	m.active = false
}

// Active reports whether the screen currently observes engine events.
func (m *App) Active() bool {
	return m.active
}

func (m *App) subscribe() {
	m.unsubscribe()
	m.updateCh, m.updateCancel = m.vm.UpdateAvailable().Subscribe()
	m.uploadCh, m.uploadCancel = m.vm.UploadFinished().Subscribe()
	if m.callUpdates != nil {
		m.callCh, m.callCancel = m.callUpdates.Subscribe()
	}
}

func (m *App) unsubscribe() {
	for _, cancel := range []func(){m.updateCancel, m.uploadCancel, m.callCancel} {
		if cancel != nil {
			cancel()
		}
	}
	m.updateCh, m.updateCancel = nil, nil
	m.uploadCh, m.uploadCancel = nil, nil
	m.callCh, m.callCancel = nil, nil
}

func (m *App) openDebugOverlay() {
	logsEnabled := false
	if m.prefs != nil {
		logsEnabled = m.prefs.DebugLogs()
	}
	m.debugOverlay = NewDebugOverlay(logsEnabled, m.keys)
}

func (m *App) syncInput() {
	m.input.SetValue(m.vm.EnteredURI)
	m.input.CursorEnd()
}

func (m *App) inCall() bool {
	switch m.callState {
	case engine.StateDialing, engine.StateRinging, engine.StateActive:
		return true
	}
	return false
}

func (m *App) versionLabel() string {
	if m.version == "" {
		return "dialpad"
	}
	return "dialpad " + m.version
}
