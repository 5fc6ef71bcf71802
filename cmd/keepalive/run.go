package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the keepalive loop until interrupted",
	Long: `Run the keepalive loop forever.

Alongside the loop this serves Prometheus metrics and health endpoints on
metrics_addr, keeps the minimal metric emitter running, and records every
remediation event in the history store. SIGINT or SIGTERM stops all of them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loaded
		logger := log.WithComponent("cli")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hist, err := openHistory(cfg.Storage)
		if err != nil {
			return err
		}
		defer func() {
			if err := hist.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close history store")
			}
		}()

		a, err := newApp(ctx, cfg, hist.broker, hist.store, clock.New())
		if err != nil {
			return err
		}
		defer a.Close()

		metrics.SetVersion(Version)
		logger.Info().
			Str("instance", cfg.InstanceID).
			Str("backend", cfg.Telemetry.Backend).
			Str("notifier", cfg.Alert.Notifier).
			Int("components", len(cfg.Supervisor.Components)).
			Msg("Keepalive system started")

		g, gctx := errgroup.WithContext(ctx)

		if cfg.MetricsAddr != "" {
			g.Go(func() error {
				serveMetrics(gctx, cfg.MetricsAddr, metrics.NewMux())
				return nil
			})
		}

		g.Go(func() error {
			return a.loop.Run(gctx)
		})

		err = g.Wait()
		logger.Info().Uint64("cycles", a.loop.Cycles()).Msg("Shutting down")
		return err
	},
}

// serveMetrics serves handler on addr until ctx is done. A listen failure is
// logged and returns early without affecting the loop.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) {
	logger := log.WithComponent("cli")
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics and health endpoints")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped, loop keeps running")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
}
