package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/log"
	"github.com/cuemby/keepalive/pkg/metrics"
	"github.com/cuemby/keepalive/pkg/storage"
	"github.com/cuemby/keepalive/pkg/telemetry"
	"github.com/docker/go-units"
	"github.com/rs/zerolog"
)

// MetricQuerier reads aggregated points back from the telemetry backend
type MetricQuerier interface {
	QueryMetric(ctx context.Context, q telemetry.Query) ([]telemetry.DataPoint, error)
}

// GapDetector alerts when the canary metric has no data points in the
// trailing window
type GapDetector struct {
	cfg        config.AlertConfig
	instanceID string
	namespace  string
	querier    MetricQuerier
	notifier   Notifier
	store      storage.AlertStore
	events     events.Publisher
	clock      clock.Clock
	logger     zerolog.Logger
}

// NewGapDetector creates a detector for the canary described by cfg. store
// may be nil, in which case alerts are never deduplicated.
func NewGapDetector(cfg config.AlertConfig, instanceID, namespace string, querier MetricQuerier, notifier Notifier, store storage.AlertStore, pub events.Publisher, clk clock.Clock) *GapDetector {
	if pub == nil {
		pub = events.Discard
	}
	if clk == nil {
		clk = clock.New()
	}
	return &GapDetector{
		cfg:        cfg,
		instanceID: instanceID,
		namespace:  namespace,
		querier:    querier,
		notifier:   notifier,
		store:      store,
		events:     pub,
		clock:      clk,
		logger:     log.WithComponent("alert"),
	}
}

// CheckAndAlert queries the canary over the trailing window and publishes an
// alert when no data points came back. A failed query sends nothing unless
// AlertOnQueryErr is set, in which case it counts as no data.
// It returns true only when an alert was delivered.
func (d *GapDetector) CheckAndAlert(ctx context.Context) bool {
	now := d.clock.Now()
	q := telemetry.Query{
		Namespace:  d.namespace,
		Name:       d.cfg.CanaryMetric,
		Dimensions: d.cfg.CanaryDimensions,
		Start:      now.Add(-d.cfg.Window),
		End:        now,
		Period:     d.cfg.Period,
		Statistic:  d.cfg.Statistic,
	}

	points, err := d.querier.QueryMetric(ctx, q)
	switch {
	case err != nil:
		metrics.GapChecksTotal.WithLabelValues("query_error").Inc()
		if !d.cfg.AlertOnQueryErr {
			d.logger.Warn().Err(err).Str("metric", q.Name).Msg("Canary query failed, no alert sent")
			return false
		}
		d.logger.Warn().Err(err).Str("metric", q.Name).Msg("Canary query failed, treating as missing data")
	case len(points) > 0:
		metrics.GapChecksTotal.WithLabelValues("present").Inc()
		metrics.UpdateComponent("alert", true, "")
		d.logger.Debug().Int("points", len(points)).Str("metric", q.Name).Msg("Canary metric present")
		return false
	default:
		metrics.GapChecksTotal.WithLabelValues("missing").Inc()
	}

	logger := log.WithTarget("alert", d.cfg.Topic)
	logger.Warn().Str("metric", q.Name).Dur("window", d.cfg.Window).Msg("No canary data points in window")

	key := d.dedupKey()
	if d.suppressed(key, now) {
		logger.Info().Dur("dedup_window", d.cfg.DedupWindow).Msg("Alert suppressed, already sent within dedup window")
		return false
	}

	if err := d.notifier.Publish(ctx, d.cfg.Topic, d.cfg.Subject, d.Message(now)); err != nil {
		metrics.UpdateComponent("alert", false, err.Error())
		logger.Error().Err(err).Msg("Failed to publish gap alert")
		return false
	}

	if d.store != nil {
		if err := d.store.RecordAlert(key, now); err != nil {
			logger.Warn().Err(err).Msg("Failed to record alert time")
		}
	}

	metrics.AlertsSentTotal.Inc()
	metrics.UpdateComponent("alert", false, "canary metric missing")
	logger.Warn().Msg("Gap alert sent")
	d.events.Publish(&events.Event{
		Type:    events.EventAlertSent,
		Message: fmt.Sprintf("no %s data points in the last %s", q.Name, units.HumanDuration(d.cfg.Window)),
		Metadata: map[string]string{
			"metric":   q.Name,
			"topic":    d.cfg.Topic,
			"instance": d.instanceID,
		},
	})
	return true
}

// Message renders the alert body for time now
func (d *GapDetector) Message(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALERT: Kafka Metrics Missing\n\n")
	fmt.Fprintf(&b, "No %s metrics found in the last %s.\n\n", d.cfg.CanaryMetric, units.HumanDuration(d.cfg.Window))
	fmt.Fprintf(&b, "Time: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Instance: %s\n", d.instanceID)
	if d.cfg.DashboardURL != "" {
		fmt.Fprintf(&b, "Dashboard: %s\n", d.cfg.DashboardURL)
	}
	fmt.Fprintf(&b, "\nWatchdog is attempting to restart metric collection.\n")
	return b.String()
}

func (d *GapDetector) dedupKey() string {
	return "gap/" + d.cfg.CanaryMetric
}

func (d *GapDetector) suppressed(key string, now time.Time) bool {
	if d.cfg.DedupWindow <= 0 || d.store == nil {
		return false
	}

	last, ok, err := d.store.LastAlert(key)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to read last alert time, not deduplicating")
		return false
	}
	return ok && now.Sub(last) < d.cfg.DedupWindow
}
