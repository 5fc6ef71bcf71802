/*
Package metrics exposes the watchdog's own Prometheus metrics and a small
component health registry.

These are self-metrics about the watchdog. The synthetic dashboard catalogue
published to CloudWatch or InfluxDB lives in the telemetry package and is not
registered here.

# Metrics

	keepalive_cycles_total                      counter
	keepalive_cycle_duration_seconds            histogram
	keepalive_step_panics_total{step}           counter
	keepalive_cluster_up                        gauge
	keepalive_cluster_restarts_total            counter
	keepalive_component_up{component}           gauge
	keepalive_component_restarts_total{component,result} counter
	keepalive_listing_failures_total            counter
	keepalive_metrics_published_total           counter
	keepalive_publish_failures_total{source}    counter
	keepalive_emitter_starts_total              counter
	keepalive_gap_checks_total{result}          counter
	keepalive_alerts_sent_total                 counter
	keepalive_verifier_failures_total           counter

All collectors are registered on the default registry in init().

# Health Registry

Each loop step reports its last outcome with UpdateComponent. GetHealth folds
them into one status:

  - healthy: every registered component is healthy
  - degraded: only non-critical components (single workers, alerting) are unhealthy
  - unhealthy: cluster, supervisor or telemetry is unhealthy

GetReadiness reports ready once the three critical components have all
reported healthy at least once.

# Endpoints

NewMux serves:

	/metrics  Prometheus exposition
	/health   aggregated status, 503 when unhealthy
	/ready    readiness, 503 until ready
	/live     always 200 while the process runs

# Timing

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CycleDuration)
*/
package metrics
