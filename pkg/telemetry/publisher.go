package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/rs/zerolog"
)

// Publisher sends the full dashboard catalogue to the backend once per call
type Publisher struct {
	cfg       config.TelemetryConfig
	catalogue []Definition
	source    MetricSource
	backend   Backend
	emitter   *Emitter
	events    events.Publisher
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewPublisher creates a publisher. emitter may be nil when no background
// emitter should be supervised.
func NewPublisher(cfg config.TelemetryConfig, catalogue []Definition, source MetricSource, backend Backend, emitter *Emitter, pub events.Publisher, clk clock.Clock) *Publisher {
	if pub == nil {
		pub = events.Discard
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Publisher{
		cfg:       cfg,
		catalogue: catalogue,
		source:    source,
		backend:   backend,
		emitter:   emitter,
		events:    pub,
		clock:     clk,
		logger:    log.WithComponent("telemetry"),
	}
}

// Publish builds the catalogue for the current instant and writes it in
// order, one backend call per batch. A failed batch is logged and the
// remaining batches are still sent. It returns the number of metrics the
// backend accepted, then makes sure the background emitter is running.
func (p *Publisher) Publish(ctx context.Context) int {
	descs := Build(p.catalogue, p.source, p.clock.Now())
	batches := Split(descs, p.cfg.BatchLimit)

	sent, failed := 0, 0
	for i, batch := range batches {
		if err := p.backend.PutMetrics(ctx, p.cfg.Namespace, batch); err != nil {
			failed++
			metrics.PublishFailuresTotal.WithLabelValues("publisher").Inc()
			p.logger.Error().Err(err).
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int("size", len(batch)).
				Msg("Failed to publish metric batch")
			continue
		}
		sent += len(batch)
	}

	metrics.MetricsPublishedTotal.Add(float64(sent))
	if failed == 0 {
		metrics.UpdateComponent("telemetry", true, "")
	} else {
		metrics.UpdateComponent("telemetry", false, fmt.Sprintf("%d of %d batches failed", failed, len(batches)))
	}

	p.logger.Info().
		Int("sent", sent).
		Int("total", len(descs)).
		Int("batches", len(batches)).
		Str("namespace", p.cfg.Namespace).
		Msg("Published metric catalogue")

	p.events.Publish(&events.Event{
		Type:    events.EventMetricsPublished,
		Message: fmt.Sprintf("published %d of %d metrics", sent, len(descs)),
		Metadata: map[string]string{
			"sent":           strconv.Itoa(sent),
			"batches":        strconv.Itoa(len(batches)),
			"failed_batches": strconv.Itoa(failed),
		},
	})

	if p.emitter != nil && p.emitter.EnsureRunning(ctx) {
		p.logger.Info().Msg("Minimal metric emitter was not running, started it")
	}

	return sent
}
