package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/tui/colors"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

// RenderDownloads renders the `ls` table.
func RenderDownloads(list []downloads.Download) string {
	if len(list) == 0 {
		return MutedStyle.Render("No downloads.")
	}

	rows := make([][]string, 0, len(list))
	for _, d := range list {
		size := "-"
		if d.Source.Size > 0 {
			size = utils.ConvertBytesToHumanReadable(d.Source.Size)
		}
		rows = append(rows, []string{
			d.Source.ShortID(),
			d.State.String(),
			truncate(d.Source.Name, 60),
			fmt.Sprintf("%.0f%%", d.Progress*100),
			size,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colors.Gray)).
		Headers("ID", "STATE", "NAME", "PROGRESS", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return HeaderStyle
			case col == 1 && row >= 0 && row < len(list):
				return StateStyle(list[row].State)
			default:
				return CellStyle
			}
		})
	return t.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
