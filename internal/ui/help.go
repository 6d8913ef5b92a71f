package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// helpSection represents a group of keybindings for display.
type helpSection struct {
	title string
	rows  [][]string // Each row: [keys, description]
}

// getHelpSections returns the help content organized into sections.
// Text is derived from binding.Help() to maintain single source of truth.
func getHelpSections(keys KeyMap) []helpSection {
	return []helpSection{
		{
			title: "DIALING",
			rows: [][]string{
				{"0-9 * # +", "Type a number"},
				{"a-z @ : .", "Type a SIP address"},
				{keys.Call.Help().Key, keys.Call.Help().Desc},
				{keys.Backspace.Help().Key, keys.Backspace.Help().Desc},
				{keys.EraseAll.Help().Key, keys.EraseAll.Help().Desc},
			},
		},
		{
			title: "CALL",
			rows: [][]string{
				{keys.Transfer.Help().Key, keys.Transfer.Help().Desc},
				{keys.Hangup.Help().Key, keys.Hangup.Help().Desc},
				{keys.NewContact.Help().Key, keys.NewContact.Help().Desc},
				{keys.Help.Help().Key, keys.Help.Help().Desc},
				{keys.Quit.Help().Key, keys.Quit.Help().Desc},
			},
		},
	}
}

// renderHelpOverlay creates the centered help modal.
func renderHelpOverlay(keys KeyMap, width, height int) string {
	sections := getHelpSections(keys)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		renderHelpSectionTable(sections[0]),
		"    ",
		renderHelpSectionTable(sections[1]),
	)

	dividerWidth := lipgloss.Width(columns)
	if dividerWidth < 40 {
		dividerWidth = 40
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		styleHelpTitle.Render("✦ DIALPAD HELP ✦"),
		styleOverlayDivider.Render(strings.Repeat("─", dividerWidth)),
		"",
		columns,
		"",
		styleHelpFooter.Render("Press F1 or Esc to close"),
	)
	return placeCentered(width, height, styleHelpOverlay.Render(content))
}

// renderHelpSectionTable renders a single help section using lipgloss/table.
func renderHelpSectionTable(section helpSection) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styleHelpKey.Width(14)
			}
			return styleHelpDesc
		}).
		Rows(section.rows...)

	header := styleHelpSectionHeader.Render(section.title)
	underline := styleOverlayDivider.Render(strings.Repeat("─", len(section.title)))

	// Hidden border adds an empty top row
	tableStr := strings.TrimPrefix(t.String(), "\n")

	return lipgloss.JoinVertical(lipgloss.Left, header, underline, tableStr)
}

// placeCentered centers content in the given area, or returns it unchanged
// before the terminal size is known.
func placeCentered(width, height int, content string) string {
	if width <= 0 || height <= 0 {
		return content
	}
	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		content,
		lipgloss.WithWhitespaceChars(" "),
	)
}
