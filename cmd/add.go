package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/clipboard"
	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/source"
)

type addOptions struct {
	name     string
	provider string
	entity   *source.Entity
}

var addCmd = &cobra.Command{
	Use:     "add [uri]...",
	Aliases: []string{"get"},
	Short:   "Submit magnet links or .torrent URLs",
	Long: `Submit one or more magnet links or .torrent URLs to the download backend.
A source that is already tracked is left alone unless it was archived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batchFile, _ := cmd.Flags().GetString("batch")
		fromClipboard, _ := cmd.Flags().GetBool("clipboard")

		// Collect URIs
		var uris []string

		// 1. URIs from args
		uris = append(uris, args...)

		// 2. URIs from batch file
		if batchFile != "" {
			fileURIs, err := readURLsFromFile(batchFile)
			if err != nil {
				return fmt.Errorf("error reading batch file: %w", err)
			}
			uris = append(uris, fileURIs...)
		}

		// 3. URIs from the clipboard
		if fromClipboard {
			uris = append(uris, clipboard.ReadURIs()...)
		}

		if len(uris) == 0 {
			return cmd.Help()
		}

		opts, err := addOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		if opts.name != "" && len(uris) > 1 {
			return fmt.Errorf("--name applies to a single uri, got %d", len(uris))
		}

		svc, closeFn, err := resolveService(globalSettings)
		if err != nil {
			return err
		}
		defer closeFn()

		if count := addURIs(cmd.Context(), cmd.OutOrStdout(), svc, uris, opts); count < len(uris) {
			return fmt.Errorf("%d of %d downloads failed", len(uris)-count, len(uris))
		}
		return nil
	},
}

func addOptionsFromFlags(cmd *cobra.Command) (addOptions, error) {
	name, _ := cmd.Flags().GetString("name")
	provider, _ := cmd.Flags().GetString("provider")
	series, _ := cmd.Flags().GetString("series")
	movie, _ := cmd.Flags().GetString("movie")
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")
	year, _ := cmd.Flags().GetInt("year")
	country, _ := cmd.Flags().GetString("country")

	opts := addOptions{name: name, provider: provider}
	switch {
	case series != "" && movie != "":
		return opts, fmt.Errorf("--series and --movie are mutually exclusive")
	case series != "":
		opts.entity = source.NewEpisode(series, year, season, episode, country)
	case movie != "":
		opts.entity = source.NewMovie(movie, year)
		opts.entity.Country = country
	}
	return opts, nil
}

// addURIs submits each uri and reports the outcome. It returns the number of
// successful submissions.
func addURIs(ctx context.Context, out io.Writer, svc core.DownloadService, uris []string, opts addOptions) int {
	count := 0
	for _, uri := range uris {
		res, err := svc.Add(ctx, core.AddRequest{
			URI:      uri,
			Name:     opts.name,
			Provider: opts.provider,
			Entity:   opts.entity,
		})
		if err != nil {
			fmt.Fprintf(out, "Error adding %s: %v\n", uri, err)
			continue
		}
		fmt.Fprintf(out, "Added: %s [%s] (%s)\n", res.Name, source.ShortID(res.ID), res.State)
		count++
	}
	return count
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("batch", "b", "", "File containing URIs to add (one per line)")
	addCmd.Flags().BoolP("clipboard", "c", false, "Add the magnet links and URLs found on the clipboard")
	addCmd.Flags().StringP("name", "n", "", "Display name (single uri only)")
	addCmd.Flags().StringP("provider", "p", "", "Where the uri came from")
	addCmd.Flags().String("series", "", "Link to an episode of this series")
	addCmd.Flags().Int("season", 0, "Season number of the episode")
	addCmd.Flags().Int("episode", 0, "Episode number")
	addCmd.Flags().String("movie", "", "Link to this movie")
	addCmd.Flags().Int("year", 0, "Release year")
	addCmd.Flags().String("country", "", "Country code for the linked entity")
}
