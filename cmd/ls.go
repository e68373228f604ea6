package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/tui"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"l", "list"},
	Short:   "List tracked downloads",
	Long:    `Sync with the download backend and list tracked downloads. Archived downloads are hidden unless --all is given.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		svc, closeFn, err := resolveService(globalSettings)
		if err != nil {
			return err
		}
		defer closeFn()

		list, err := svc.List(cmd.Context(), all)
		if err != nil {
			return err
		}

		if asJSON {
			if list == nil {
				list = []downloads.Download{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDownloads(list))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolP("all", "a", false, "Include archived downloads")
	lsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
