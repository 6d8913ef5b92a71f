package ui

import (
	"context"

	"dialpad/internal/engine"
	apperrors "dialpad/internal/errors"
	"dialpad/internal/update"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type transferDoneMsg struct {
	address string
	err     error
}

type hangupDoneMsg struct {
	err error
}

// Update implements tea.Model.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(minEntryWidth, msg.Width-8)
		return m, nil

	case updateAvailableMsg:
		return m, m.handleUpdateAvailable(msg)
	case uploadFinishedMsg:
		return m, m.handleUploadFinished(msg)
	case callUpdateMsg:
		return m, m.handleCallUpdate(msg)

	case UpdateConfirmedMsg:
		m.updateOverlay = nil
		if err := m.browser.Open(msg.URL); err != nil {
			m.log.Warnf("open %s failed: %v", msg.URL, err)
			return m, m.showError(err)
		}
		return m, nil
	case UpdateCancelledMsg:
		m.updateOverlay = nil
		return m, nil

	case DebugActionMsg:
		m.debugOverlay = nil
		return m, m.handleDebugAction(msg.Action)
	case DebugCancelledMsg:
		m.debugOverlay = nil
		return m, nil

	case transferDoneMsg:
		if msg.err != nil {
			return m, m.showError(msg.err)
		}
		m.vm.EraseAll()
		m.syncInput()
		return m, m.showToast(toastSuccess, "Call transferred to "+msg.address)
	case hangupDoneMsg:
		if msg.err != nil {
			return m, m.showError(msg.err)
		}
		return m, nil

	case toastTickMsg:
		return m, m.handleToastTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.updateOverlay != nil {
		m.updateOverlay, cmd = m.updateOverlay.Update(msg)
		return m, cmd
	}
	if m.debugOverlay != nil {
		m.debugOverlay, cmd = m.debugOverlay.Update(msg)
		return m, cmd
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Deactivate()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Call):
		cmd = m.startCall()
	case key.Matches(msg, m.keys.Backspace):
		m.vm.EraseLastChar()
	case key.Matches(msg, m.keys.EraseAll):
		m.vm.EraseAll()
	case key.Matches(msg, m.keys.Transfer):
		cmd = m.transferCall()
	case key.Matches(msg, m.keys.Hangup):
		cmd = m.hangup()
	case key.Matches(msg, m.keys.NewContact):
		cmd = m.newContact()
	case msg.Type == tea.KeyRunes:
		for _, r := range msg.Runes {
			if m.vm.Append(string(r)) {
				m.openDebugOverlay()
				break
			}
		}
	}
	m.syncInput()
	return m, cmd
}

func (m *App) startCall() tea.Cmd {
	if err := m.vm.StartCall(context.Background()); err != nil {
		return m.showError(err)
	}
	return nil
}

func (m *App) transferCall() tea.Cmd {
	if !m.vm.TransferVisible {
		return nil
	}
	// A press always ends transfer mode, whatever the outcome.
	address, ok := m.vm.TransferTarget()
	m.vm.ConsumeTransfer(m.shared)
	if !ok {
		return nil
	}
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callActionTimeout)
		defer cancel()
		return transferDoneMsg{address: address, err: vm.Transfer(ctx, address)}
	}
}

func (m *App) hangup() tea.Cmd {
	if !m.inCall() {
		return nil
	}
	vm := m.vm
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callActionTimeout)
		defer cancel()
		return hangupDoneMsg{err: vm.Hangup(ctx)}
	}
}

func (m *App) newContact() tea.Cmd {
	if m.navigator == nil {
		return nil
	}
	dest := m.vm.NewContactDestination()
	if err := m.navigator.Navigate(dest); err != nil {
		return m.showError(err)
	}
	return m.showToast(toastInfo, "Opening "+dest.String())
}

func (m *App) handleUpdateAvailable(msg updateAvailableMsg) tea.Cmd {
	msg.ev.Consume(func(n update.Notice) {
		m.log.With("version", n.Version).Logf("update available, showing dialog")
		m.updateOverlay = NewUpdateOverlay(n, m.keys)
	})
	if msg.ch != m.updateCh {
		return nil
	}
	return waitForUpdate(m.updateCh)
}

func (m *App) handleUploadFinished(msg uploadFinishedMsg) tea.Cmd {
	var cmd tea.Cmd
	msg.ev.Consume(func(url string) {
		if !m.uploadLogsInitiatedByUs {
			m.log.Logf("log upload finished but was not started here, ignoring")
			return
		}
		m.uploadLogsInitiatedByUs = false
		if err := m.clipboard.WriteAll(url); err != nil {
			m.log.Warnf("copy logs url failed: %v", err)
			cmd = m.showToast(toastInfo, "Logs uploaded to "+url)
			return
		}
		cmd = m.showToast(toastSuccess, "Logs URL copied to clipboard: "+url)
	})
	if msg.ch != m.uploadCh {
		return cmd
	}
	return tea.Batch(cmd, waitForUpload(m.uploadCh))
}

func (m *App) handleCallUpdate(msg callUpdateMsg) tea.Cmd {
	var cmd tea.Cmd
	msg.ev.Consume(func(u engine.CallUpdate) {
		m.callState = u.State
		m.remote = u.Remote
		switch {
		case u.Err != nil && !engine.IsCancelled(u.Err):
			cmd = m.showError(u.Err)
		case u.State == engine.StateActive:
			cmd = m.showToast(toastInfo, "Connected to "+u.Remote)
		case u.State == engine.StateEnded:
			cmd = m.showToast(toastInfo, "Call ended")
		}
	})
	if msg.ch != m.callCh {
		return cmd
	}
	return tea.Batch(cmd, waitForCall(m.callCh))
}

func (m *App) handleDebugAction(action DebugAction) tea.Cmd {
	switch action {
	case DebugEnableLogs, DebugDisableLogs:
		enable := action == DebugEnableLogs
		if m.prefs != nil {
			if err := m.prefs.SetDebugLogs(enable); err != nil {
				return m.showError(apperrors.New(apperrors.CodePreferencesFailed, "could not save debug logs setting", err))
			}
		}
		if err := m.setLogging(enable); err != nil {
			return m.showError(err)
		}
		if enable {
			return m.showToast(toastSuccess, "Debug logs enabled")
		}
		return m.showToast(toastSuccess, "Debug logs disabled")
	case DebugSendLogs:
		m.uploadLogsInitiatedByUs = true
		m.vm.UploadLogs()
		return m.showToast(toastInfo, "Uploading logs…")
	}
	return nil
}
