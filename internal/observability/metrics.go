// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Upstream metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram

	// Cycle metrics
	CyclesTotal      *prometheus.CounterVec
	CycleDuration    prometheus.Histogram
	PairsReceived    prometheus.Counter
	PairsDropped     *prometheus.CounterVec
	PairsDisplayed   prometheus.Gauge
	ConsecutiveFails prometheus.Gauge
	LoopState        *prometheus.GaugeVec

	// Alert metrics
	AlertsRaised *prometheus.CounterVec

	// Dashboard metrics
	WSClients       prometheus.Gauge
	FramesPublished *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dex_pair_monitor"
	}

	return &Metrics{
		FetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetches_total",
			Help:      "Total number of upstream fetches by status",
		}, []string{"status"}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),

		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "cycles_total",
			Help:      "Total number of refresh cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "cycle_duration_seconds",
			Help:      "Refresh cycle duration in seconds (fetch, filter, render)",
			Buckets:   prometheus.DefBuckets,
		}),
		PairsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "pairs_received_total",
			Help:      "Total number of upstream pair records received",
		}),
		PairsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "pairs_dropped_total",
			Help:      "Total number of pair records excluded by reason",
		}, []string{"reason"}),
		PairsDisplayed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "pairs_displayed",
			Help:      "Number of pairs rendered by the last cycle",
		}),
		ConsecutiveFails: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "consecutive_errors",
			Help:      "Current consecutive fetch failure count",
		}),
		LoopState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loop",
			Name:      "state",
			Help:      "1 for the current loop state, 0 otherwise",
		}, []string{"state"}),

		AlertsRaised: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "raised_total",
			Help:      "Total number of alerts raised by level",
		}, []string{"level"}),

		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "ws_clients",
			Help:      "Connected WebSocket dashboard clients",
		}),
		FramesPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "frames_published_total",
			Help:      "Total number of render events published by sink and status",
		}, []string{"sink", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful refresh cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// knownStates lists every loop state label so the gauge is always complete.
var knownStates = []string{"IDLE", "RUNNING", "STOPPED_BY_USER", "STOPPED_BY_ERRORS"}

// RecordFetch records one upstream fetch.
func RecordFetch(status string, seconds float64) {
	DefaultMetrics.FetchesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.FetchDuration.Observe(seconds)
}

// RecordCycle records a completed refresh cycle.
func RecordCycle(status string, seconds float64, received, displayed int, unixSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(seconds)
	DefaultMetrics.PairsReceived.Add(float64(received))
	if status == "success" {
		DefaultMetrics.PairsDisplayed.Set(float64(displayed))
		DefaultMetrics.LastSuccessfulCycle.Set(unixSeconds)
	}
}

// RecordDropped records pairs excluded from display for a reason
// (malformed, too_old, low_liquidity, blacklisted).
func RecordDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	DefaultMetrics.PairsDropped.WithLabelValues(reason).Add(float64(n))
}

// SetErrorCount updates the consecutive failure gauge.
func SetErrorCount(n int) {
	DefaultMetrics.ConsecutiveFails.Set(float64(n))
}

// SetLoopState marks state as current.
func SetLoopState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1
		}
		DefaultMetrics.LoopState.WithLabelValues(s).Set(v)
	}
}

// RecordAlert increments the alert counter for a level.
func RecordAlert(level string) {
	DefaultMetrics.AlertsRaised.WithLabelValues(level).Inc()
}

// SetWSClients updates the connected client gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordPublish records one render event delivered to a sink.
func RecordPublish(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.FramesPublished.WithLabelValues(sink, status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
