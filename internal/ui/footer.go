package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// footerHint defines a key hint for the footer bar.
// These are intentionally shorter than the KeyMap help text.
type footerHint struct {
	key  string
	desc string
}

var globalFooterHints = []footerHint{
	{"⏎", "Call"},
	{"⌫", "Erase"},
	{"^N", "Contact"},
	{"F1", "Help"},
	{"esc", "Quit"},
}

var inCallFooterHints = []footerHint{
	{"^X", "Hang up"},
}

var transferFooterHints = []footerHint{
	{"^T", "Transfer"},
}

// renderFooter renders the footer bar with pill-style key hints.
func (m *App) renderFooter() string {
	var hints []footerHint
	if m.vm.TransferVisible {
		hints = append(hints, transferFooterHints...)
	}
	if m.inCall() {
		hints = append(hints, inCallFooterHints...)
	}
	hints = append(hints, globalFooterHints...)

	right := styleStatsDim.Render(m.versionLabel())
	rightWidth := lipgloss.Width(right)
	hints = trimHintsToFit(hints, m.width-rightWidth-4)

	left := renderHints(hints)
	spacing := m.width - lipgloss.Width(left) - rightWidth
	if spacing < 2 {
		spacing = 2
	}
	return left + strings.Repeat(" ", spacing) + right
}

// overlayFooterLine renders hints for the bottom of a popup.
func overlayFooterLine(hints []footerHint) string {
	return renderHints(hints)
}

// keyPill renders a single key hint as a pill with description.
func keyPill(key, desc string) string {
	return styleKeyPill.Render(" "+key+" ") + " " + styleKeyDesc.Render(desc)
}

func renderHints(hints []footerHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyPill(h.key, h.desc))
	}
	return strings.Join(parts, "  ")
}

// trimHintsToFit drops hints from the end until the bar fits. A
// non-positive width means the terminal size is not known yet.
func trimHintsToFit(hints []footerHint, availableWidth int) []footerHint {
	if availableWidth <= 0 {
		return hints
	}
	for len(hints) > 0 && lipgloss.Width(renderHints(hints)) > availableWidth {
		hints = hints[:len(hints)-1]
	}
	return hints
}
