package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"askly/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts the askly HTTP API. Requests identify their user with the configured header (X-User-ID by default).`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	indexer, err := a.indexingService(ctx)
	if err != nil {
		return err
	}
	querier, err := a.queryService(ctx)
	if err != nil {
		return err
	}

	// The collection is also created lazily on first upload.
	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := a.gateway.EnsureCollection(ensureCtx); err != nil {
		a.logger.Warn().Err(err).Msg("vector store not ready, continuing")
	}
	cancel()

	srv := server.New(indexer, querier, server.Options{
		Addr:         a.cfg.Server.Addr,
		UserHeader:   a.cfg.Server.UserHeader,
		MaxUploadMB:  a.cfg.Server.MaxUploadMB,
		ReadTimeout:  secs(a.cfg.Server.ReadTimeoutSecs),
		WriteTimeout: secs(a.cfg.Server.WriteTimeoutSecs),
	}, a.logger)
	return srv.Run(ctx)
}
