package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/keepalive/pkg/config"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Point layout: measurement is the namespace, the metric name and every
// dimension are tags, the value is the "value" field.
const (
	influxMetricTag  = "metric"
	influxUnitTag    = "unit"
	influxValueField = "value"
)

// InfluxDBBackend publishes to and queries an InfluxDB 2.x bucket
type InfluxDBBackend struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	bucket string
}

// NewInfluxDBBackend creates a client for cfg. No request is made until
// the first write or query.
func NewInfluxDBBackend(cfg config.InfluxDBConfig) *InfluxDBBackend {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxDBBackend{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
	}
}

// PutMetrics implements Backend with one blocking write
func (b *InfluxDBBackend) PutMetrics(ctx context.Context, namespace string, batch []MetricDescriptor) error {
	points := make([]*write.Point, 0, len(batch))
	for _, d := range batch {
		tags := map[string]string{
			influxMetricTag: d.Name,
			influxUnitTag:   string(d.Unit),
		}
		for _, dim := range d.Dimensions {
			tags[dim.Name] = dim.Value
		}
		points = append(points, influxdb2.NewPoint(namespace, tags, map[string]interface{}{influxValueField: d.Value}, d.Timestamp))
	}

	if err := b.write.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

// QueryMetric implements Backend with a Flux aggregateWindow query
func (b *InfluxDBBackend) QueryMetric(ctx context.Context, q Query) ([]DataPoint, error) {
	result, err := b.query.Query(ctx, fluxQuery(b.bucket, q))
	if err != nil {
		return nil, fmt.Errorf("influxdb query: %w", err)
	}
	defer result.Close()

	var points []DataPoint
	for result.Next() {
		record := result.Record()
		var v float64
		switch val := record.Value().(type) {
		case float64:
			v = val
		case int64:
			v = float64(val)
		default:
			continue
		}
		points = append(points, DataPoint{Timestamp: record.Time(), Value: v})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("error reading influxdb results: %w", result.Err())
	}
	return points, nil
}

// Close implements Backend
func (b *InfluxDBBackend) Close() error {
	b.client.Close()
	return nil
}

func fluxQuery(bucket string, q Query) string {
	var filter strings.Builder
	fmt.Fprintf(&filter, `r._measurement == %q and r._field == %q and r[%q] == %q`, q.Namespace, influxValueField, influxMetricTag, q.Name)
	for _, d := range q.Dimensions {
		fmt.Fprintf(&filter, ` and r[%q] == %q`, d.Name, d.Value)
	}

	period := q.Period
	if period < time.Second {
		period = time.Second
	}

	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => %s)
  |> aggregateWindow(every: %ds, fn: %s, createEmpty: false)`,
		bucket,
		q.Start.UTC().Format(time.RFC3339),
		q.End.UTC().Format(time.RFC3339),
		filter.String(),
		int64(period/time.Second),
		fluxAggregate(q.Statistic))
}

func fluxAggregate(stat string) string {
	switch stat {
	case StatisticSum:
		return "sum"
	case StatisticMinimum:
		return "min"
	case StatisticMaximum:
		return "max"
	case StatisticSampleCount:
		return "count"
	default:
		return "mean"
	}
}
