package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	cPurple     = lipgloss.Color("99")
	cCyan       = lipgloss.Color("39")
	cNeonGreen  = lipgloss.Color("118")
	cRed        = lipgloss.Color("203")
	cGold       = lipgloss.Color("220")
	cGray       = lipgloss.Color("240")
	cBrightGray = lipgloss.Color("246")
	cLightGray  = lipgloss.Color("250")
	cWhite      = lipgloss.Color("255")
	cHighlight  = lipgloss.Color("57")

	styleAppHeader = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cPurple).
			Bold(true).
			Padding(0, 1)

	styleHeaderInfo = lipgloss.NewStyle().
			Foreground(cLightGray).
			Background(cPurple).
			Padding(0, 1)

	styleEntry = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cPurple).
			Padding(0, 1)

	styleKeypadKey = lipgloss.NewStyle().
			Foreground(cWhite).
			Border(lipgloss.NormalBorder()).
			BorderForeground(cGray).
			Width(5).
			Align(lipgloss.Center)

	styleStatsDim = lipgloss.NewStyle().Foreground(cBrightGray)
	styleValue    = lipgloss.NewStyle().Foreground(cWhite)
	styleVersion  = lipgloss.NewStyle().Foreground(cGold).Bold(true)

	styleCallIdle    = lipgloss.NewStyle().Foreground(cBrightGray)
	styleCallRinging = lipgloss.NewStyle().Foreground(cCyan).Bold(true)
	styleCallActive  = lipgloss.NewStyle().Foreground(cNeonGreen).Bold(true)

	styleTransferBadge = lipgloss.NewStyle().
				Foreground(cWhite).
				Background(cHighlight).
				Padding(0, 1).
				Bold(true)

	styleOverlay = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cPurple).
			Padding(1, 2)

	styleOverlayTitle = lipgloss.NewStyle().
				Foreground(cGold).
				Bold(true)

	styleOverlayDivider = lipgloss.NewStyle().Foreground(cGray)

	styleMenuItem = lipgloss.NewStyle().
			Foreground(cWhite).
			Padding(0, 1)

	styleMenuItemSelected = lipgloss.NewStyle().
				Foreground(cWhite).
				Background(cHighlight).
				Bold(true).
				Padding(0, 1)

	styleErrorToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cRed).
			Foreground(cWhite).
			Padding(0, 1)

	styleSuccessToast = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cNeonGreen).
				Foreground(cWhite).
				Padding(0, 1)

	styleInfoToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cCyan).
			Foreground(cWhite).
			Padding(0, 1)

	styleKeyPill = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cGray).
			Bold(true)

	styleKeyDesc = lipgloss.NewStyle().Foreground(cBrightGray)

	styleHelpOverlay = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cPurple).
				Padding(1, 3)

	styleHelpTitle         = lipgloss.NewStyle().Foreground(cGold).Bold(true)
	styleHelpSectionHeader = lipgloss.NewStyle().Foreground(cCyan).Bold(true)
	styleHelpKey           = lipgloss.NewStyle().Foreground(cWhite).Bold(true)
	styleHelpDesc          = lipgloss.NewStyle().Foreground(cLightGray)
	styleHelpFooter        = lipgloss.NewStyle().Foreground(cBrightGray).Italic(true)
)

// buildMarkdownRenderer returns a renderer for release notes that falls back
// to plain word wrapping when glamour cannot be set up.
func buildMarkdownRenderer(width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
