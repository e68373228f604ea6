package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/arroyo-downloader/arroyo/internal/tui/colors"
)

// ConfirmationModal renders a styled confirmation dialog box
type ConfirmationModal struct {
	Title       string
	Message     string
	Detail      string // Optional detail line, e.g. the download name
	Keys        help.KeyMap
	Help        help.Model
	BorderColor lipgloss.TerminalColor
	Width       int
}

// ConfirmationKeyMap defines keybindings for a confirmation modal
type ConfirmationKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ConfirmationKeys are the default yes/no bindings.
var ConfirmationKeys = ConfirmationKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n", "back"),
	),
}

// ShortHelp returns keybindings to show
func (k ConfirmationKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k ConfirmationKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// NewConfirmationModal creates a modal with default styling
func NewConfirmationModal(title, message, detail string, borderColor lipgloss.TerminalColor) ConfirmationModal {
	return ConfirmationModal{
		Title:       title,
		Message:     message,
		Detail:      detail,
		Keys:        ConfirmationKeys,
		Help:        help.New(),
		BorderColor: borderColor,
		Width:       60,
	}
}

// View renders the message and detail without the box or help text
func (m ConfirmationModal) View() string {
	content := m.Message
	if m.Detail != "" {
		detailStyle := lipgloss.NewStyle().
			Foreground(colors.NeonPurple).
			Bold(true)
		content = lipgloss.JoinVertical(lipgloss.Center,
			content,
			"",
			detailStyle.Render(m.Detail),
		)
	}
	return content
}

// Render returns the boxed modal with its title and help line.
func (m ConfirmationModal) Render() string {
	innerWidth := m.Width - 10 // borders and padding

	titleStyle := lipgloss.NewStyle().
		Foreground(colors.NeonPink).
		Bold(true)
	helpStyle := lipgloss.NewStyle().
		Foreground(colors.Gray).
		Width(innerWidth).
		Align(lipgloss.Center)

	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(m.Title),
		"",
		lipgloss.NewStyle().Width(innerWidth).Align(lipgloss.Center).Render(m.View()),
		"",
		helpStyle.Render(m.Help.View(m.Keys)),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(m.BorderColor).
		Padding(1, 4).
		Render(body)
}

// Centered returns the modal centered in the given dimensions
func (m ConfirmationModal) Centered(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.Render())
}
