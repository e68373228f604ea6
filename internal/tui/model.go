package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/tui/colors"
	"github.com/arroyo-downloader/arroyo/internal/tui/components"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

const (
	defaultInterval = 30 * time.Second
	progressWidth   = 30
)

type syncedMsg struct {
	downloads []downloads.Download
	err       error
	at        time.Time
}

type tickMsg time.Time

type actionDoneMsg struct {
	verb string
	name string
	err  error
}

// WatchModel is the bubbletea model behind `arroyo watch`.
type WatchModel struct {
	service  core.DownloadService
	interval time.Duration
	keys     WatchKeyMap

	spinner spinner.Model
	bar     progress.Model

	downloads []downloads.Download
	cursor    int
	syncing   bool
	lastSync  time.Time
	status    string
	err       error

	confirm *components.ConfirmationModal

	width  int
	height int
}

// NewWatchModel creates a watch view that syncs every interval.
func NewWatchModel(service core.DownloadService, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = defaultInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colors.NeonPink)

	return WatchModel{
		service:  service,
		interval: interval,
		keys:     Keys,
		spinner:  s,
		bar: progress.New(
			progress.WithGradient(colors.ProgressStart, colors.ProgressEnd),
			progress.WithWidth(progressWidth),
		),
		syncing: true,
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.syncCmd())
}

func (m WatchModel) syncCmd() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		ctx := context.Background()
		err := service.Sync(ctx)
		if err != nil {
			utils.Debug("watch: sync failed: %v", err)
		}
		list, listErr := service.List(ctx, false)
		if err == nil {
			err = listErr
		}
		return syncedMsg{downloads: list, err: err, at: time.Now()}
	}
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) actionCmd(verb string, d downloads.Download) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		var err error
		switch verb {
		case "archived":
			_, err = service.Archive(context.Background(), d.Source.ID)
		case "cancelled":
			_, err = service.Cancel(context.Background(), d.Source.ID)
		}
		return actionDoneMsg{verb: verb, name: d.Source.Name, err: err}
	}
}

func (m WatchModel) selected() (downloads.Download, bool) {
	if m.cursor < 0 || m.cursor >= len(m.downloads) {
		return downloads.Download{}, false
	}
	return m.downloads[m.cursor], true
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)

	case syncedMsg:
		m.syncing = false
		m.lastSync = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.downloads = msg.downloads
		}
		if m.cursor >= len(m.downloads) {
			m.cursor = max(len(m.downloads)-1, 0)
		}
		return m, m.tickCmd()

	case tickMsg:
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, tea.Batch(m.spinner.Tick, m.syncCmd())

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("%s %s", strings.ToUpper(msg.verb[:1])+msg.verb[1:], msg.name)
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, tea.Batch(m.spinner.Tick, m.syncCmd())

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.downloads)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		if !m.syncing {
			m.syncing = true
			return m, tea.Batch(m.spinner.Tick, m.syncCmd())
		}
	case key.Matches(msg, m.keys.Archive):
		if d, ok := m.selected(); ok {
			return m, m.actionCmd("archived", d)
		}
	case key.Matches(msg, m.keys.Cancel):
		if d, ok := m.selected(); ok {
			modal := components.NewConfirmationModal(
				"Cancel download",
				"Remove the download and its data?",
				d.Source.Name,
				colors.StateError,
			)
			m.confirm = &modal
		}
	}
	return m, nil
}

func (m WatchModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, components.ConfirmationKeys.Confirm):
		m.confirm = nil
		if d, ok := m.selected(); ok {
			return m, m.actionCmd("cancelled", d)
		}
	case key.Matches(msg, components.ConfirmationKeys.Cancel):
		m.confirm = nil
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.confirm != nil && m.width > 0 && m.height > 0 {
		return m.confirm.Centered(m.width, m.height)
	}
	if m.confirm != nil {
		return m.confirm.Render()
	}

	var b strings.Builder
	b.WriteString(ApplyGradient("arroyo", colors.ProgressStart, colors.ProgressEnd))
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if len(m.downloads) == 0 {
		b.WriteString(MutedStyle.Render("No active downloads."))
		b.WriteString("\n")
	}
	for i, d := range m.downloads {
		b.WriteString(m.renderRow(i, d))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(helpLine(m.keys)))
	return b.String()
}

func (m WatchModel) statusLine() string {
	switch {
	case m.syncing:
		return m.spinner.View() + MutedStyle.Render(" syncing")
	case m.status != "":
		return MutedStyle.Render(m.status)
	case !m.lastSync.IsZero():
		return MutedStyle.Render("synced " + m.lastSync.Format("15:04:05"))
	default:
		return ""
	}
}

func (m WatchModel) renderRow(i int, d downloads.Download) string {
	cursor := "  "
	name := truncate(d.Source.Name, 40)
	if i == m.cursor {
		cursor = SelectedStyle.Render("> ")
		name = SelectedStyle.Render(name)
	}

	size := ""
	if d.Source.Size > 0 {
		size = MutedStyle.Render(utils.ConvertBytesToHumanReadable(d.Source.Size))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cursor,
		lipgloss.NewStyle().Width(42).Render(name),
		StateStyle(d.State).Width(15).Render(d.State.String()),
		m.bar.ViewAs(d.Progress),
		" ",
		size,
	)
}

func helpLine(k WatchKeyMap) string {
	parts := make([]string, 0, len(k.ShortHelp()))
	for _, b := range k.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
