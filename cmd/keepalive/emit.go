package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/telemetry"
	"github.com/spf13/cobra"
)

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Run only the minimal metric emitter in the foreground",
	Long: `Publish the minimal metric subset (producer request rate and consumer
fetch rate) every telemetry.emitter_interval until interrupted.

Useful as a standalone systemd unit when the full loop is not wanted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loaded

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := telemetry.NewBackend(ctx, cfg.Telemetry)
		if err != nil {
			return err
		}
		defer backend.Close()

		emitter := telemetry.NewEmitter(
			cfg.Telemetry.Namespace,
			cfg.Telemetry.EmitterInterval,
			telemetry.MinimalCatalogue(cfg.InstanceID),
			telemetry.NewRandomSource(),
			backend,
			clock.New(),
		)

		logger := log.WithComponent("cli")
		logger.Info().
			Dur("interval", cfg.Telemetry.EmitterInterval).
			Msg("Running minimal metric emitter")

		_ = emitter.Run(ctx)
		return nil
	},
}
