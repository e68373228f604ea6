package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/core"
	"github.com/arroyo-downloader/arroyo/internal/downloader"
	"github.com/arroyo-downloader/arroyo/internal/downloads"
	"github.com/arroyo-downloader/arroyo/internal/source"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow downloads as they progress",
	Long: `Sync with the backend periodically and show live progress.
With --headless, print one line per state change instead of the interactive view.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		headless, _ := cmd.Flags().GetBool("headless")
		if interval <= 0 {
			interval = globalSettings.Watch.Interval
		}

		svc, closeFn, err := resolveService(globalSettings)
		if err != nil {
			return err
		}
		defer closeFn()

		if !headless {
			return startTUI(svc, interval)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		scheduler, err := scheduleSync(ctx, svc, interval, newStateReporter(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		defer scheduler.Stop()

		<-ctx.Done()
		return nil
	},
}

// scheduleSync starts a scheduler that syncs every interval, starting now.
// A nil reporter only syncs.
func scheduleSync(ctx context.Context, svc core.DownloadService, interval time.Duration, r *stateReporter) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).Do(func() {
		if err := svc.Sync(ctx); err != nil {
			utils.Debug("scheduled sync failed: %v", err)
			if r != nil {
				r.fail(err)
			}
			return
		}
		if r == nil {
			return
		}
		list, err := svc.List(ctx, true)
		if err != nil {
			r.fail(err)
			return
		}
		r.report(list)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.StartAsync()
	return s, nil
}

// stateReporter prints a line whenever a download appears, changes state or
// disappears between two reports.
type stateReporter struct {
	mu    sync.Mutex
	out   io.Writer
	seen  map[string]downloader.State
	names map[string]string
}

func newStateReporter(out io.Writer) *stateReporter {
	return &stateReporter{
		out:   out,
		seen:  make(map[string]downloader.State),
		names: make(map[string]string),
	}
}

func (r *stateReporter) report(list []downloads.Download) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := make(map[string]bool, len(list))
	for _, d := range list {
		id := d.Source.ID
		current[id] = true
		r.names[id] = d.Source.Name

		prev, ok := r.seen[id]
		switch {
		case !ok:
			fmt.Fprintf(r.out, "Tracking: %s [%s] %s %.0f%%\n", d.Source.Name, source.ShortID(id), d.State, d.Progress*100)
		case prev != d.State:
			fmt.Fprintf(r.out, "%s: %s [%s] (was %s)\n", stateVerb(d.State), d.Source.Name, source.ShortID(id), prev)
		}
		r.seen[id] = d.State
	}

	for id := range r.seen {
		if !current[id] {
			fmt.Fprintf(r.out, "Removed: %s [%s]\n", r.names[id], source.ShortID(id))
			delete(r.seen, id)
			delete(r.names, id)
		}
	}
}

func (r *stateReporter) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Error: sync failed: %v\n", err)
}

func stateVerb(s downloader.State) string {
	switch s {
	case downloader.Queued:
		return "Queued"
	case downloader.Paused:
		return "Paused"
	case downloader.Downloading:
		return "Downloading"
	case downloader.Sharing:
		return "Completed"
	case downloader.Done:
		return "Done"
	case downloader.Archived:
		return "Archived"
	default:
		return "Changed"
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", 0, "Sync interval (default from settings)")
	watchCmd.Flags().Bool("headless", false, "Print state changes instead of the interactive view")
}
