package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/tui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the effective settings",
	Long: `Show every setting with its effective value, after the settings file,
ARROYO_* environment variables and command line flags are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := flattenSettings(globalSettings)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.MutedStyle.Render("# "+settingsPath()))
		meta := config.GetSettingsMetadata()
		for _, category := range config.CategoryOrder() {
			fmt.Fprintln(out, tui.HeaderStyle.Render(category))
			for _, m := range meta[category] {
				value := values[m.Key]
				if strings.HasSuffix(m.Key, "password") && value != "" {
					value = "********"
				}
				fmt.Fprintf(out, "  %s %s\n",
					lipgloss.NewStyle().Width(32).Render(m.Key),
					value)
			}
		}
		return nil
	},
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := settingsPath()
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveSettingsTo(path, config.DefaultSettings()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func settingsPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetSettingsPath()
}

// flattenSettings renders settings as dotted keys matching SettingMeta.Key
func flattenSettings(s *config.Settings) (map[string]string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var sections map[string]map[string]any
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for section, fields := range sections {
		for name, v := range fields {
			out[section+"."+name] = fmt.Sprint(v)
		}
	}

	// Durations marshal as nanoseconds
	out["transmission.timeout"] = s.Transmission.Timeout.String()
	out["watch.interval"] = s.Watch.Interval.String()
	return out, nil
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
