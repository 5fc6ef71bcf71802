package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/cuemby/keepalive/pkg/sleep"
	"github.com/rs/zerolog"
)

// Emitter republishes a small catalogue on a fixed interval, independent of
// the keepalive cycle. It runs as a background task with its own lifecycle.
type Emitter struct {
	namespace string
	interval  time.Duration
	catalogue []Definition
	source    MetricSource
	backend   Backend
	clock     clock.Clock
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEmitter creates a stopped emitter
func NewEmitter(namespace string, interval time.Duration, catalogue []Definition, source MetricSource, backend Backend, clk clock.Clock) *Emitter {
	if clk == nil {
		clk = clock.New()
	}
	return &Emitter{
		namespace: namespace,
		interval:  interval,
		catalogue: catalogue,
		source:    source,
		backend:   backend,
		clock:     clk,
		logger:    log.WithComponent("emitter"),
	}
}

// Start launches the background task unless it is already running.
// It returns true when a new task was started. The task stops when ctx is
// cancelled or Stop is called.
func (e *Emitter) Start(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.runningLocked() {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	metrics.EmitterStartsTotal.Inc()
	e.logger.Info().Dur("interval", e.interval).Int("metrics", len(e.catalogue)).Msg("Starting minimal metric emitter")

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error().Interface("panic", r).Msg("Minimal metric emitter crashed")
			}
		}()
		_ = e.Run(runCtx)
	}()

	return true
}

// EnsureRunning starts the emitter if it is not running
func (e *Emitter) EnsureRunning(ctx context.Context) bool {
	return e.Start(ctx)
}

// Running reports whether the background task is alive
func (e *Emitter) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runningLocked()
}

func (e *Emitter) runningLocked() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Stop cancels the background task and waits for it to exit
func (e *Emitter) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run publishes immediately and then once per interval until ctx is done.
// Publish errors are logged and never stop the loop.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		e.EmitOnce(ctx)
		if err := sleep.For(ctx, e.clock, e.interval); err != nil {
			return err
		}
	}
}

// EmitOnce publishes the catalogue once and returns the number of metrics
// accepted by the backend
func (e *Emitter) EmitOnce(ctx context.Context) int {
	descs := Build(e.catalogue, e.source, e.clock.Now())

	sent := 0
	for _, batch := range Split(descs, 0) {
		if err := e.backend.PutMetrics(ctx, e.namespace, batch); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues("emitter").Inc()
			e.logger.Warn().Err(err).Msg("Minimal metric publish failed")
			continue
		}
		sent += len(batch)
	}

	metrics.MetricsPublishedTotal.Add(float64(sent))
	e.logger.Debug().Int("sent", sent).Int("total", len(descs)).Msg("Minimal metrics emitted")
	return sent
}
