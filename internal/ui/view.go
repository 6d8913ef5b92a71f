package ui

import (
	"strings"

	"dialpad/internal/engine"

	"github.com/charmbracelet/lipgloss"
)

var keypadRows = [][]string{
	{"1", "2", "3"},
	{"4", "5", "6"},
	{"7", "8", "9"},
	{"*", "0", "#"},
}

// View implements tea.Model.
func (m *App) View() string {
	if m.showHelp {
		return renderHelpOverlay(m.keys, m.width, m.height)
	}
	if m.updateOverlay != nil {
		return placeCentered(m.width, m.height, m.updateOverlay.View())
	}
	if m.debugOverlay != nil {
		return placeCentered(m.width, m.height, m.debugOverlay.View())
	}

	sections := []string{
		m.renderHeader(),
		"",
		styleEntry.Render(m.input.View()),
		m.renderStatus(),
		"",
		renderKeypad(),
	}
	if t := m.renderToast(); t != "" {
		sections = append(sections, "", t)
	}
	body := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.height > 0 {
		if gap := m.height - lipgloss.Height(body) - 1; gap > 0 {
			body += strings.Repeat("\n", gap)
		}
	}
	return body + "\n" + m.renderFooter()
}

func (m *App) renderHeader() string {
	title := styleAppHeader.Render("☎ DIALPAD")
	info := styleHeaderInfo.Render(callStateLabel(m.callState))
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, info)
	if m.vm.TransferVisible {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, " ", styleTransferBadge.Render("TRANSFER"))
	}
	return header
}

func (m *App) renderStatus() string {
	var parts []string
	if m.remote != "" && m.callState != engine.StateIdle {
		parts = append(parts, styleStatsDim.Render("Remote:")+" "+callStateStyle(m.callState).Render(m.remote))
	}
	video := "off"
	if m.vm.AutoInitiateVideo {
		video = "auto"
	}
	parts = append(parts, styleStatsDim.Render("Video:")+" "+styleValue.Render(video))
	return " " + strings.Join(parts, styleStatsDim.Render("  •  "))
}

func renderKeypad() string {
	rows := make([]string, 0, len(keypadRows))
	for _, row := range keypadRows {
		cells := make([]string, 0, len(row))
		for _, k := range row {
			cells = append(cells, styleKeypadKey.Render(k))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func callStateLabel(state engine.CallState) string {
	switch state {
	case engine.StateDialing:
		return "Dialing…"
	case engine.StateRinging:
		return "Ringing…"
	case engine.StateActive:
		return "In call"
	case engine.StateEnded:
		return "Call ended"
	default:
		return "Ready"
	}
}

func callStateStyle(state engine.CallState) lipgloss.Style {
	switch state {
	case engine.StateDialing, engine.StateRinging:
		return styleCallRinging
	case engine.StateActive:
		return styleCallActive
	default:
		return styleCallIdle
	}
}
