package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

var historyCmd = &cobra.Command{
	Use:   "history <ID>",
	Short: "Show the lifecycle events of a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := resolveService(globalSettings)
		if err != nil {
			return err
		}
		defer closeFn()

		events, err := svc.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history.")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, e := range events {
			line := fmt.Sprintf("%s  %-10s", time.Unix(e.At, 0).Format("2006-01-02 15:04:05"), e.Kind)
			if e.From != downloader.Unknown || e.To != downloader.Unknown {
				line += fmt.Sprintf("  %s -> %s", e.From, e.To)
			}
			if e.ForeignID != "" {
				line += "  (" + e.ForeignID + ")"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
