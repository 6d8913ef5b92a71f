package ui

import (
	"strings"

	"dialpad/internal/update"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

const updateOverlayWidth = 56

// UpdateOverlay asks whether to download an available update.
type UpdateOverlay struct {
	notice update.Notice
	notes  string
	keys   KeyMap
}

// UpdateConfirmedMsg is sent when OK is chosen.
type UpdateConfirmedMsg struct {
	URL string
}

// UpdateCancelledMsg is sent when the dialog is dismissed without opening the URL.
type UpdateCancelledMsg struct{}

// NewUpdateOverlay builds the dialog for notice. Release notes are rendered
// as markdown once, up front.
func NewUpdateOverlay(notice update.Notice, keys KeyMap) *UpdateOverlay {
	o := &UpdateOverlay{notice: notice, keys: keys}
	if notes := strings.TrimSpace(notice.Notes); notes != "" {
		o.notes = buildMarkdownRenderer(updateOverlayWidth)(notes)
	}
	return o
}

// Update handles the dialog's two actions.
func (m *UpdateOverlay) Update(msg tea.Msg) (*UpdateOverlay, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm), key.Matches(keyMsg, key.NewBinding(key.WithKeys("o"))):
		url := m.notice.URL
		return m, func() tea.Msg { return UpdateConfirmedMsg{URL: url} }
	case key.Matches(keyMsg, m.keys.Cancel), key.Matches(keyMsg, key.NewBinding(key.WithKeys("c"))):
		return m, func() tea.Msg { return UpdateCancelledMsg{} }
	}
	return m, nil
}

// View renders the dialog box.
func (m *UpdateOverlay) View() string {
	body := "A new version is available."
	if v := strings.TrimSpace(m.notice.Version); v != "" {
		body = "Version " + styleVersion.Render(v) + " is available."
	}
	lines := []string{
		styleOverlayTitle.Render("Update available"),
		styleOverlayDivider.Render(strings.Repeat("─", updateOverlayWidth)),
		"",
		body,
		styleStatsDim.Render(wordwrap.String(m.notice.URL, updateOverlayWidth)),
	}
	if m.notes != "" {
		lines = append(lines, "", m.notes)
	}
	lines = append(lines, "", overlayFooterLine([]footerHint{{"c/esc", "Cancel"}, {"o/⏎", "OK"}}))
	return styleOverlay.Render(strings.Join(lines, "\n"))
}
