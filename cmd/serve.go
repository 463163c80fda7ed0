package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/edascope/internal/web"
	"github.com/spf13/cobra"
)

var (
	serveAddr        string
	serveMaxSessions int
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve exploration sessions over HTTP",
	Long: `Start the HTTP API. Each POST /api/sessions loads, describes and cleans the
dataset into a new session; GET /api/sessions/{id}/charts?column=NAME charts a column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, g, err := datasetOptions(cmd, args)
		if err != nil {
			return err
		}
		addr := g.ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		maxSessions := g.MaxSessions
		if cmd.Flags().Changed("max-sessions") && serveMaxSessions > 0 {
			maxSessions = serveMaxSessions
		}
		srv := web.NewServer(opt, maxSessions)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(addr)
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on %s\n", opt.Path, addr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addDatasetFlags(serveCmd, true)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides config serve_addr)")
	serveCmd.Flags().IntVar(&serveMaxSessions, "max-sessions", 0, "maximum live sessions (overrides config)")
}
