package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/tui"
	"github.com/arroyo-downloader/arroyo/internal/utils"
	"github.com/arroyo-downloader/arroyo/internal/version"

	// Download backends register themselves with the downloader registry.
	_ "github.com/arroyo-downloader/arroyo/internal/downloader/mock"
	_ "github.com/arroyo-downloader/arroyo/internal/downloader/native"
	_ "github.com/arroyo-downloader/arroyo/internal/downloader/transmission"
)

// Persistent flags
var (
	cfgFile     string
	storeFlag   string
	dbFlag      string
	backendFlag string
	noColor     bool
)

// globalSettings is loaded once per invocation, before any command runs
var globalSettings *config.Settings

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arroyo [uri]...",
	Short: "Track torrent downloads across download backends",
	Long: `Arroyo submits magnet links and .torrent URLs to a download backend
(Transmission, an embedded client, or a mock) and keeps a durable record of
each one as it moves from queued to downloading, sharing and done.

Run without arguments to open the live watch view.`,
	Version:       version.Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		globalSettings = settings
		initializeGlobalState(settings)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := globalSettings
		svc, closeFn, err := resolveService(settings)
		if err != nil {
			return err
		}
		defer closeFn()

		// Queue initial downloads if any
		if len(args) > 0 {
			addURIs(cmd.Context(), cmd.OutOrStdout(), svc, args, addOptions{})
		}

		return startTUI(svc, settings.Watch.Interval)
	},
}

// startTUI runs the watch view until the user quits
func startTUI(svc core.DownloadService, interval time.Duration) error {
	p := tea.NewProgram(tui.NewWatchModel(svc, interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running watch view: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Settings file (default: "+config.GetSettingsPath()+")")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store backend: json, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database file")
	rootCmd.PersistentFlags().StringVarP(&backendFlag, "downloader", "d", "", "Download backend: transmission, native or mock")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.SetVersionTemplate("arroyo version {{.Version}}\n")
}

// loadSettings reads the settings file and applies flag overrides
func loadSettings() (*config.Settings, error) {
	path := cfgFile
	if path == "" {
		path = config.GetSettingsPath()
	}
	settings, err := config.LoadSettingsFrom(path)
	if err != nil {
		return nil, err
	}

	if storeFlag != "" {
		settings.Store.Backend = storeFlag
	}
	if dbFlag != "" {
		settings.Store.Path = dbFlag
	}
	if backendFlag != "" {
		settings.General.Downloader = backendFlag
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// initializeGlobalState sets up directories, logging and terminal colors
func initializeGlobalState(settings *config.Settings) {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Config logging
	utils.ConfigureDebug(config.GetLogsDir())
	utils.CleanupLogs(settings.General.LogRetentionCount)

	switch {
	case noColor:
		lipgloss.SetColorProfile(termenv.Ascii)
	case settings.General.Theme == config.ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	case settings.General.Theme == config.ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	}
}
