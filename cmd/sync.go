package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/downloader"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile tracked downloads with the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := resolveService(globalSettings)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.Sync(cmd.Context()); err != nil {
			return err
		}
		list, err := svc.List(cmd.Context(), true)
		if err != nil {
			return err
		}

		counts := make(map[downloader.State]int)
		for _, d := range list {
			counts[d.State]++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Synced %d downloads (%d active, %d complete, %d archived).\n",
			len(list),
			len(list)-counts[downloader.Archived]-counts[downloader.Done]-counts[downloader.Sharing],
			counts[downloader.Done]+counts[downloader.Sharing],
			counts[downloader.Archived])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
