package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors the server exports on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	// ClampEvents counts persisted scores that had to be clamped into [0,5].
	ClampEvents *prometheus.CounterVec
	// Submissions counts accepted surveys by submitter role.
	Submissions *prometheus.CounterVec
	// Superseded counts dashboard requests dropped because a newer one arrived.
	Superseded *prometheus.CounterVec
	// EdgeCalls counts hosted-function calls by target and outcome.
	EdgeCalls *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ClampEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "growpoint_clamp_events_total",
			Help: "Scores clamped into range before persistence, by field",
		}, []string{"field"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "growpoint_submissions_total",
			Help: "Accepted survey submissions by submitter role",
		}, []string{"role"}),
		Superseded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "growpoint_dashboard_superseded_total",
			Help: "Dashboard requests discarded in favour of a newer request",
		}, []string{"view"}),
		EdgeCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "growpoint_edge_calls_total",
			Help: "Calls to hosted insight and speech functions by outcome",
		}, []string{"target", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "growpoint_http_requests_total",
			Help: "HTTP requests by method, route and status class",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "growpoint_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
