package telemetry

import (
	"context"
	"fmt"

	"github.com/cuemby/keepalive/pkg/config"
)

// Statistics accepted in Query.Statistic
const (
	StatisticAverage     = "Average"
	StatisticSum         = "Sum"
	StatisticMinimum     = "Minimum"
	StatisticMaximum     = "Maximum"
	StatisticSampleCount = "SampleCount"
)

// Backend is a telemetry store that accepts metric batches and answers
// aggregate queries
type Backend interface {
	// PutMetrics writes one batch. Callers keep batches within the
	// backend's per-call limit.
	PutMetrics(ctx context.Context, namespace string, batch []MetricDescriptor) error

	// QueryMetric returns the aggregated points of one series, oldest first
	QueryMetric(ctx context.Context, q Query) ([]DataPoint, error)

	Close() error
}

// NewBackend creates the backend selected by cfg.Backend
func NewBackend(ctx context.Context, cfg config.TelemetryConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendCloudWatch:
		return NewCloudWatchBackend(ctx, cfg.Region)
	case config.BackendInfluxDB:
		return NewInfluxDBBackend(cfg.InfluxDB), nil
	default:
		return nil, fmt.Errorf("unknown telemetry backend %q", cfg.Backend)
	}
}
