package colors

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

// === Color Palette ===
// Dark values follow the Dracula palette; light values are high contrast.
var (
	NeonPurple = lipgloss.AdaptiveColor{Light: "#5d40c9", Dark: "#bd93f9"}
	NeonPink   = lipgloss.AdaptiveColor{Light: "#d10074", Dark: "#ff79c6"}
	NeonCyan   = lipgloss.AdaptiveColor{Light: "#0073a8", Dark: "#8be9fd"}
	Gray       = lipgloss.AdaptiveColor{Light: "#d0d0d0", Dark: "#44475a"} // Borders
	LightGray  = lipgloss.AdaptiveColor{
		Light: "#4a4a4a",
		Dark:  "#a9b1d6",
	} // Secondary text
	White = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f8f8f2"}
)

// === Semantic State Colors ===
var (
	StateError = lipgloss.AdaptiveColor{
		Light: "#d32f2f",
		Dark:  "#ff5555",
	} // Red
	StatePaused = lipgloss.AdaptiveColor{
		Light: "#f57c00",
		Dark:  "#ffb86c",
	} // Orange - Paused/Queued/Initializing
	StateDownloading = lipgloss.AdaptiveColor{
		Light: "#2e7d32",
		Dark:  "#50fa7b",
	} // Green
	StateSharing = lipgloss.AdaptiveColor{
		Light: "#0073a8",
		Dark:  "#8be9fd",
	} // Cyan
	StateDone = lipgloss.AdaptiveColor{
		Light: "#7b1fa2",
		Dark:  "#bd93f9",
	} // Purple - Done/Archived
)

// === Progress Bar Colors ===
var (
	ProgressStart = "#ff79c6" // Pink
	ProgressEnd   = "#bd93f9" // Purple
)

// ForState returns the color a download state is rendered with.
func ForState(s downloader.State) lipgloss.AdaptiveColor {
	switch s {
	case downloader.Initializing, downloader.Queued, downloader.Paused:
		return StatePaused
	case downloader.Downloading:
		return StateDownloading
	case downloader.Sharing:
		return StateSharing
	case downloader.Done, downloader.Archived:
		return StateDone
	default:
		return StateError
	}
}
