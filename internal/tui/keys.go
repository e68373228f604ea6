package tui

import "github.com/charmbracelet/bubbles/key"

// WatchKeyMap defines the keybindings of the watch view
type WatchKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Archive key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

// Keys contains the default keybindings
var Keys = WatchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "sync now"),
	),
	Archive: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "archive"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the footer
func (k WatchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Archive, k.Cancel, k.Quit}
}
