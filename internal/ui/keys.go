package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dialer's keyboard shortcuts. Printable characters are
// not bound here: they go straight into the entered address.
type KeyMap struct {
	// Entry
	Call      key.Binding
	Backspace key.Binding
	EraseAll  key.Binding

	// Call actions
	Transfer   key.Binding
	Hangup     key.Binding
	NewContact key.Binding

	// Overlays
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Cancel  key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings for the dialer.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Call: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("⏎ (Enter)", "Call / recall last number"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "Erase last character"),
		),
		EraseAll: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("Ctrl+U", "Erase all"),
		),
		Transfer: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("Ctrl+T", "Transfer call"),
		),
		Hangup: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("Ctrl+X", "Hang up"),
		),
		NewContact: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("Ctrl+N", "New contact"),
		),
		// Up/Down share help text (displayed as single row)
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑/↓", "Move in popup"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↑/↓", "Move in popup"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("⏎ (Enter)", "Select / OK"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "Close popup"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "Help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc  Ctrl+C", "Quit"),
		),
	}
}
