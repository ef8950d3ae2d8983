package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpDelivery "github.com/bitebook/backend/internal/delivery/http"
	"github.com/bitebook/backend/internal/jobs"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(parent context.Context, cctx *commandContext) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	log := cctx.logger
	defer func() { _ = log.Sync() }()

	log.Info("starting bitebook backend",
		zap.String("version", httpDelivery.Version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("store", cfg.Store.Driver))

	a, err := cctx.buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	if cfg.Resolver.Enabled {
		job, err := jobs.NewResolverJob(cfg.Resolver.Schedule, a.places, log)
		if err != nil {
			return err
		}
		job.Start()
		defer job.Stop()
		log.Info("pending place resolver scheduled", zap.String("schedule", cfg.Resolver.Schedule))
	}

	handler := httpDelivery.NewHandler(a.places, a.feed, log)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: httpDelivery.SetupRouter(cfg, handler, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
