package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gautamkmahato/API-Weaver-Server/internal/config"
	"github.com/gautamkmahato/API-Weaver-Server/internal/engine"
	"github.com/gautamkmahato/API-Weaver-Server/internal/metrics"
	"github.com/gautamkmahato/API-Weaver-Server/internal/server"
	"github.com/gautamkmahato/API-Weaver-Server/internal/store"
	"github.com/gautamkmahato/API-Weaver-Server/middleware"
	"github.com/spf13/cobra"
)

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	config.BindServeFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()

	docs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	defer docs.Close()

	opts := engineOptions(cfg, logger, "")
	opts = append(opts,
		engine.WithStore(store.Instrument(docs, cfg.Store.Driver, registry.Metrics)),
		engine.WithMetrics(registry.Metrics),
	)

	if len(cfg.Auth.Tokens) == 0 {
		logger.Warn("no auth tokens configured; every /v1 request will be rejected")
	}

	srv, err := server.New(cfg.Server, engine.New(opts...),
		server.WithVerifier(middleware.StaticVerifier(cfg.Auth.Tokens)),
		server.WithMetrics(registry),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx)
}
