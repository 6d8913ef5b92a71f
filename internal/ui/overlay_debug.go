package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DebugAction is an entry of the debug popup.
type DebugAction int

const (
	DebugEnableLogs DebugAction = iota
	DebugDisableLogs
	DebugSendLogs
)

// Label is the text shown for the action.
func (a DebugAction) Label() string {
	switch a {
	case DebugEnableLogs:
		return "Enable debug logs"
	case DebugDisableLogs:
		return "Disable debug logs"
	case DebugSendLogs:
		return "Send logs"
	default:
		return "Unknown"
	}
}

// debugActions lists the popup entries for the current logging switch.
func debugActions(logsEnabled bool) []DebugAction {
	if logsEnabled {
		return []DebugAction{DebugDisableLogs, DebugSendLogs}
	}
	return []DebugAction{DebugEnableLogs}
}

// DebugOverlay is the hidden popup opened by typing the debug code.
type DebugOverlay struct {
	actions []DebugAction
	cursor  int
	keys    KeyMap
}

// DebugActionMsg is sent when an entry is chosen.
type DebugActionMsg struct {
	Action DebugAction
}

// DebugCancelledMsg is sent when the popup is dismissed.
type DebugCancelledMsg struct{}

// NewDebugOverlay builds the popup for the current logging switch.
func NewDebugOverlay(logsEnabled bool, keys KeyMap) *DebugOverlay {
	return &DebugOverlay{
		actions: debugActions(logsEnabled),
		keys:    keys,
	}
}

// Actions returns the entries in display order.
func (m *DebugOverlay) Actions() []DebugAction {
	return m.actions
}

// Update handles navigation inside the popup.
func (m *DebugOverlay) Update(msg tea.Msg) (*DebugOverlay, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.actions)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Confirm):
		if len(m.actions) == 0 {
			return m, nil
		}
		action := m.actions[m.cursor]
		return m, func() tea.Msg { return DebugActionMsg{Action: action} }
	case key.Matches(keyMsg, m.keys.Cancel):
		return m, func() tea.Msg { return DebugCancelledMsg{} }
	}
	return m, nil
}

// View renders the popup box.
func (m *DebugOverlay) View() string {
	lines := []string{
		styleOverlayTitle.Render("Debug"),
		styleOverlayDivider.Render(strings.Repeat("─", 28)),
		"",
	}
	for i, a := range m.actions {
		if i == m.cursor {
			lines = append(lines, styleMenuItemSelected.Render("› "+a.Label()))
			continue
		}
		lines = append(lines, styleMenuItem.Render("  "+a.Label()))
	}
	lines = append(lines, "", overlayFooterLine([]footerHint{{"⏎", "Select"}, {"esc", "Close"}}))
	return styleOverlay.Render(strings.Join(lines, "\n"))
}
