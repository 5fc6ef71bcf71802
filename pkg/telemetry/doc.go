/*
Package telemetry publishes the synthetic dashboard metrics and reads them
back for gap detection.

The dashboard is built on a fixed catalogue of 30 metrics (DefaultCatalogue).
Each Publish builds the whole catalogue for one instant, with values drawn
from a MetricSource, and writes it to a Backend in consecutive batches that
never exceed the configured batch limit (20, the CloudWatch PutMetricData
bound).

# Backends

  - CloudWatchBackend: PutMetricData / GetMetricStatistics through
    aws-sdk-go-v2, credentials from the default chain
  - InfluxDBBackend: blocking line-protocol writes and Flux aggregateWindow
    queries through influxdb-client-go; the namespace becomes the
    measurement, metric name and dimensions become tags

# Values

Values are synthetic activity signals, not measurements. Production uses
RandomSource, which draws from each Definition's Generator. Tests substitute
FixedSource or SourceFunc to assert exact payloads.

# Minimal Emitter

Emitter republishes MinimalCatalogue (the producer canary and consumer fetch
rate) every interval, independent of the keepalive cycle. Publisher calls
EnsureRunning after each publish so a crashed emitter is restarted on the
next cycle.

	emitter := telemetry.NewEmitter(cfg.Namespace, cfg.EmitterInterval, telemetry.MinimalCatalogue(id), source, backend, clk)
	pub := telemetry.NewPublisher(cfg, telemetry.DefaultCatalogue(id), source, backend, emitter, broker, clk)
	sent := pub.Publish(ctx)
*/
package telemetry
