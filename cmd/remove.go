package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/source"
)

type idAction func(ctx context.Context, svc core.DownloadService, id string) (source.Source, error)

var cancelCmd = &cobra.Command{
	Use:     "cancel <ID>...",
	Aliases: []string{"rm", "kill"},
	Short:   "Cancel downloads and delete their data",
	Long:    `Remove downloads from the backend, delete their data and forget them. IDs may be unique prefixes.`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToIDs(cmd, args, "Cancelled", func(ctx context.Context, svc core.DownloadService, id string) (source.Source, error) {
			return svc.Cancel(ctx, id)
		})
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <ID>...",
	Short: "Archive downloads, keeping their data",
	Long: `Remove downloads from the backend but keep their data and their record.
An archived source can be added again later.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyToIDs(cmd, args, "Archived", func(ctx context.Context, svc core.DownloadService, id string) (source.Source, error) {
			return svc.Archive(ctx, id)
		})
	},
}

// applyToIDs runs action for each id, printing one line per id.
func applyToIDs(cmd *cobra.Command, ids []string, verb string, action idAction) error {
	svc, closeFn, err := resolveService(globalSettings)
	if err != nil {
		return err
	}
	defer closeFn()

	failed := 0
	for _, id := range ids {
		src, err := action(cmd.Context(), svc, id)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Error: %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s [%s]\n", verb, src.Name, source.ShortID(src.ID))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d ids failed", failed, len(ids))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(archiveCmd)
}
