package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "arroyo %s (built %s)\n", version.Version, version.BuildTime)
		if !check {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), version.RequestTimeout)
		defer cancel()
		info, err := version.NewChecker().Check(ctx, version.Version)
		switch {
		case err != nil:
			return err
		case info == nil:
			fmt.Fprintln(out, "Development build, skipping update check.")
		case info.UpdateAvailable:
			fmt.Fprintf(out, "Update available: %s (%s)\n", info.LatestVersion, info.ReleaseURL)
		default:
			fmt.Fprintln(out, "Up to date.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("check", false, "Check GitHub for a newer release")
}
