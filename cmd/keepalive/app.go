package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/alert"
	"github.com/cuemby/keepalive/pkg/cluster"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/health"
	"github.com/cuemby/keepalive/pkg/process"
	"github.com/cuemby/keepalive/pkg/storage"
	"github.com/cuemby/keepalive/pkg/supervisor"
	"github.com/cuemby/keepalive/pkg/telemetry"
	"github.com/cuemby/keepalive/pkg/watchdog"
)

// app is the fully wired watchdog
type app struct {
	backend telemetry.Backend
	emitter *telemetry.Emitter
	loop    *watchdog.Loop
}

// newApp wires every component from cfg. alerts backs alert deduplication
// and may be nil.
func newApp(ctx context.Context, cfg *config.Config, pub events.Publisher, alerts storage.AlertStore, clk clock.Clock) (*app, error) {
	backend, err := telemetry.NewBackend(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry backend: %w", err)
	}

	notifier, err := alert.NewNotifier(ctx, cfg.Alert, cfg.Telemetry.Region)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	prober := health.NewExecProber()
	source := telemetry.NewRandomSource()

	emitter := telemetry.NewEmitter(
		cfg.Telemetry.Namespace,
		cfg.Telemetry.EmitterInterval,
		telemetry.MinimalCatalogue(cfg.InstanceID),
		source,
		backend,
		clk,
	)

	steps := watchdog.Steps{
		Cluster:    cluster.NewRestarter(cfg.Cluster, prober, process.NewExecRunner(), pub, clk),
		Components: supervisor.NewSupervisor(cfg.Supervisor, prober, process.NewExecLauncher(), pub, clk),
		Publisher: telemetry.NewPublisher(
			cfg.Telemetry,
			telemetry.DefaultCatalogue(cfg.InstanceID),
			source,
			backend,
			emitter,
			pub,
			clk,
		),
		Gaps:     alert.NewGapDetector(cfg.Alert, cfg.InstanceID, cfg.Telemetry.Namespace, backend, notifier, alerts, pub, clk),
		Verifier: watchdog.NewVerifier(cfg.Verifier, prober, pub),
	}

	return &app{
		backend: backend,
		emitter: emitter,
		loop:    watchdog.NewLoop(cfg.Loop, steps, pub, clk),
	}, nil
}

// Close stops the emitter and releases the backend
func (a *app) Close() error {
	a.emitter.Stop()
	return a.backend.Close()
}

// history couples the event broker with its bolt-backed recorder
type history struct {
	store  *storage.BoltStore
	broker *events.Broker
	sub    events.Subscriber
	done   chan error
	cancel context.CancelFunc
}

func openHistory(cfg config.StorageConfig) (*history, error) {
	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	broker := events.NewBroker()
	sub := broker.Subscribe()
	broker.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- storage.Record(ctx, store, sub, cfg.MaxEvents)
	}()

	return &history{store: store, broker: broker, sub: sub, done: done, cancel: cancel}, nil
}

// Close flushes queued events to the store and closes it
func (h *history) Close() error {
	h.broker.Stop()
	h.broker.Unsubscribe(h.sub)
	err := <-h.done
	h.cancel()
	return errors.Join(err, h.store.Close())
}
