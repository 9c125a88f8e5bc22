package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chview-io/chview/internal/engine"
	"github.com/chview-io/chview/internal/ui"
	"github.com/chview-io/chview/internal/ui/notifier"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port    int
	Refresh int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lineage dashboard server",
		Long: `Start a local web server rendering the materialized view lineage graph.

The server refreshes lineage from the cluster on an interval and pushes
update signals to connected browsers over SSE.`,
		Example: `  # Serve on the configured port
  chview serve

  # Serve on a custom port, refreshing every 30 seconds
  chview serve --port 3000 --refresh 30

  # Restrict lineage to one database
  chview serve -d analytics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default from config)")
	cmd.Flags().IntVar(&opts.Refresh, "refresh", 0, "Refresh interval in seconds (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := ConfigFrom(cmd.Context())
	logger := LoggerFrom(cmd.Context())

	// CLI flags override config file.
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.Refresh != 0 {
		cfg.Server.RefreshSeconds = opts.Refresh
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, db, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	notify := notifier.New()
	eng := engine.New(engine.Config{
		Source:           repo,
		Logger:           logger,
		Database:         cfg.Database,
		ErrorWindowHours: cfg.ErrorWindowHours,
		OnRefresh:        notify.Broadcast,
	})

	// An unreachable log table or a transient query failure should not
	// prevent startup; the scheduled refresh retries.
	if err := eng.Refresh(ctx); err != nil {
		logger.Error("initial refresh failed", "error", err)
	}

	server := ui.NewServer(ui.Config{
		Engine:        eng,
		Port:          cfg.Server.Port,
		SessionSecret: cfg.Server.SessionSecret,
		Logger:        logger,
		Notifier:      notify,
	})

	fmt.Printf("Serving lineage on http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return eng.Run(egctx, cfg.Server.RefreshInterval())
	})
	eg.Go(func() error {
		return server.Serve(egctx)
	})
	return eg.Wait()
}
