package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the live-data gateway.
type Metrics struct {
	UpstreamRequests   *prometheus.CounterVec // labels: provider={traffic,weather}, outcome={success,error}
	CacheLookups       *prometheus.CounterVec // labels: provider={traffic,weather}, result={hit,miss}
	SyntheticFallbacks *prometheus.CounterVec // labels: provider={traffic,weather}
	UpstreamDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers all gateway metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.CacheLookups,
		m.SyntheticFallbacks,
		m.UpstreamDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so
// parallel tests do not trip "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_insight",
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_insight",
			Name:      "cache_lookups_total",
			Help:      "Reading-cache lookups by provider and result.",
		}, []string{"provider", "result"}),
		SyntheticFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traffic_insight",
			Name:      "synthetic_fallbacks_total",
			Help:      "Readings synthesized because a provider was unavailable.",
		}, []string{"provider"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "traffic_insight",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
	}
}
