package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus metrics for the dashboard engine.
type Registry struct {
	registry *prometheus.Registry

	// Evaluation loop
	EvalDuration prometheus.Histogram
	EvalTicks    prometheus.Counter

	// Rule engine
	RuleFirings *prometheus.CounterVec

	// Alert store
	ActiveAlerts         *prometheus.GaugeVec
	UnacknowledgedAlerts prometheus.Gauge

	// Snapshot provider
	ProviderFailures prometheus.Counter

	// WebSocket fan-out
	ConnectedClients prometheus.Gauge
}

// NewRegistry creates and registers all engine metrics on a private
// Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		EvalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dukapulse_evaluation_duration_seconds",
			Help:    "Duration of one rules-merge-rank evaluation pass",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		EvalTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dukapulse_evaluation_ticks_total",
			Help: "Total number of evaluation ticks executed",
		}),

		RuleFirings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dukapulse_rule_firings_total",
			Help: "Total rule firings by rule ID",
		}, []string{"rule"}),

		ActiveAlerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dukapulse_active_alerts",
			Help: "Live alerts in the lifecycle store by kind",
		}, []string{"kind"}),

		UnacknowledgedAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dukapulse_unacknowledged_alerts",
			Help: "Live alerts not yet acknowledged by an operator",
		}),

		ProviderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dukapulse_provider_failures_total",
			Help: "Snapshot provider fetch failures (engine reuses last snapshot)",
		}),

		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dukapulse_ws_connected_clients",
			Help: "Dashboard clients connected to the WebSocket feed",
		}),
	}

	r.registry.MustRegister(
		r.EvalDuration,
		r.EvalTicks,
		r.RuleFirings,
		r.ActiveAlerts,
		r.UnacknowledgedAlerts,
		r.ProviderFailures,
		r.ConnectedClients,
	)

	return r
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }
