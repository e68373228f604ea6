package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arroyo-downloader/arroyo/internal/api"
	"github.com/arroyo-downloader/arroyo/internal/config"
	"github.com/arroyo-downloader/arroyo/internal/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API and sync periodically",
	Long: `Own the database, sync with the backend every watch.interval and serve the
JSON API. Other arroyo commands talk to this process while it runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		noAuth, _ := cmd.Flags().GetBool("no-auth")
		if addr == "" {
			addr = globalSettings.Server.Addr
		}

		locked, err := AcquireLock()
		if err != nil {
			return err
		}
		if !locked {
			return fmt.Errorf("arroyo is already running (lock %s is held)", lockPath())
		}
		defer func() {
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}()

		app, err := openLocal(globalSettings)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				utils.Debug("Error closing: %v", err)
			}
		}()

		token := ""
		if !noAuth {
			if token, err = api.EnsureAuthToken(config.GetArroyoDir()); err != nil {
				return err
			}
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", addr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		scheduler, err := scheduleSync(ctx, app.service, globalSettings.Watch.Interval, nil)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer scheduler.Stop()

		// Advertise the actual address for CLI discovery
		if err := saveServerInfo(serverInfo{Addr: ln.Addr().String(), Auth: !noAuth}); err != nil {
			utils.Debug("Error writing server info: %v", err)
		}
		defer removeServerInfo()

		server := api.NewServer(app.service, token).NewHTTPServer(addr)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Serve(ln)
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (backend %s, syncing every %s)\n",
			ln.Addr(), globalSettings.General.Downloader, globalSettings.Watch.Interval)
		utils.Debug("HTTP server listening on %s", ln.Addr())

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from settings)")
	serveCmd.Flags().Bool("no-auth", false, "Serve without bearer token authentication")
}
