package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/tui/colors"
)

var (
	// Standard pane border
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Gray).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(colors.NeonCyan).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(colors.White).
			Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.LightGray)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(colors.NeonPink).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.StateError).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colors.LightGray).
			MarginTop(1)
)

// StateStyle renders a download state in its semantic color.
func StateStyle(s downloader.State) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colors.ForState(s)).
		Padding(0, 1)
}
