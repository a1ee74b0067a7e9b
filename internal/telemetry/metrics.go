package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector of the service on a private
// registry. All methods are safe on a nil *Metrics, which records nothing.
// ⭐ SSOT: metric names are declared here only
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	ScreenDecisions  *prometheus.CounterVec
	Refreshes        *prometheus.CounterVec
	StocksInSnapshot *prometheus.GaugeVec
	LastRefresh      prometheus.Gauge
	StreamClients    prometheus.Gauge
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b3monitor_upstream_requests_total",
				Help: "Quote source requests by endpoint and result (ok, cache_hit, error)",
			},
			[]string{"endpoint", "result"},
		),

		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "b3monitor_upstream_request_duration_seconds",
				Help:    "Latency of quote source requests that missed the cache",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),

		ScreenDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b3monitor_screen_decisions_total",
				Help: "Screen outcomes; reason is empty for admitted stocks",
			},
			[]string{"decision", "reason"},
		),

		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b3monitor_refreshes_total",
				Help: "Snapshot refreshes by result",
			},
			[]string{"result"},
		),

		StocksInSnapshot: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "b3monitor_snapshot_stocks",
				Help: "Stocks in the current snapshot by decision",
			},
			[]string{"decision"},
		),

		LastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "b3monitor_last_refresh_timestamp_seconds",
				Help: "Unix time of the last successful refresh",
			},
		),

		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "b3monitor_stream_clients",
				Help: "Connected websocket clients",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ScreenDecisions,
		m.Refreshes,
		m.StocksInSnapshot,
		m.LastRefresh,
		m.StreamClients,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one quote source call
func (m *Metrics) ObserveUpstream(endpoint, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, result).Inc()
	if result != "cache_hit" {
		m.UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// ObserveDecision records one screen decision
func (m *Metrics) ObserveDecision(admitted bool, reason string) {
	if m == nil {
		return
	}
	decision := "rejected"
	if admitted {
		decision = "admitted"
	}
	m.ScreenDecisions.WithLabelValues(decision, reason).Inc()
}

// ObserveRefresh records a refresh outcome and, on success, the snapshot size
func (m *Metrics) ObserveRefresh(err error, admitted, rejected int, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.Refreshes.WithLabelValues("error").Inc()
		return
	}
	m.Refreshes.WithLabelValues("ok").Inc()
	m.StocksInSnapshot.WithLabelValues("admitted").Set(float64(admitted))
	m.StocksInSnapshot.WithLabelValues("rejected").Set(float64(rejected))
	m.LastRefresh.Set(float64(at.Unix()))
}

// StreamClientDelta adjusts the websocket client gauge
func (m *Metrics) StreamClientDelta(delta float64) {
	if m == nil {
		return
	}
	m.StreamClients.Add(delta)
}
