package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Loop metrics
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_cycles_total",
			Help: "Total number of completed reconciliation cycles",
		},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keepalive_cycle_duration_seconds",
			Help:    "Reconciliation cycle duration in seconds, excluding the inter-cycle sleep",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
		},
	)

	StepPanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepalive_step_panics_total",
			Help: "Total number of recovered panics by loop step",
		},
		[]string{"step"},
	)

	// Cluster metrics
	ClusterUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "keepalive_cluster_up",
			Help: "Whether the last broker liveness probe succeeded (1 = up, 0 = down)",
		},
	)

	ClusterRestartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_cluster_restarts_total",
			Help: "Total number of broker cluster restart attempts",
		},
	)

	// Component metrics
	ComponentUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "keepalive_component_up",
			Help: "Whether a supervised component was present in the last process listing",
		},
		[]string{"component"},
	)

	ComponentRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepalive_component_restarts_total",
			Help: "Total number of component relaunches by component and result",
		},
		[]string{"component", "result"},
	)

	ListingFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_listing_failures_total",
			Help: "Total number of process listing probes that failed",
		},
	)

	// Telemetry metrics
	MetricsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_metrics_published_total",
			Help: "Total number of metric data points published to the telemetry backend",
		},
	)

	PublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepalive_publish_failures_total",
			Help: "Total number of failed telemetry publish calls by source",
		},
		[]string{"source"},
	)

	EmitterStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_emitter_starts_total",
			Help: "Total number of times the minimal metric emitter was started",
		},
	)

	// Alert metrics
	GapChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keepalive_gap_checks_total",
			Help: "Total number of canary gap checks by result",
		},
		[]string{"result"},
	)

	AlertsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_alerts_sent_total",
			Help: "Total number of gap alerts published",
		},
	)

	VerifierFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keepalive_verifier_failures_total",
			Help: "Total number of failed widget verifications",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(CycleDuration)
	prometheus.MustRegister(StepPanicsTotal)
	prometheus.MustRegister(ClusterUp)
	prometheus.MustRegister(ClusterRestartsTotal)
	prometheus.MustRegister(ComponentUp)
	prometheus.MustRegister(ComponentRestartsTotal)
	prometheus.MustRegister(ListingFailuresTotal)
	prometheus.MustRegister(MetricsPublishedTotal)
	prometheus.MustRegister(PublishFailuresTotal)
	prometheus.MustRegister(EmitterStartsTotal)
	prometheus.MustRegister(GapChecksTotal)
	prometheus.MustRegister(AlertsSentTotal)
	prometheus.MustRegister(VerifierFailuresTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMux returns a mux serving /metrics, /health, /ready and /live
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/ready", ReadyHandler())
	mux.HandleFunc("/live", LivenessHandler())
	return mux
}
