package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every statichost metric.
const Namespace = "statichost"

// Proxy error reasons.
const (
	ReasonTimeout  = "timeout"
	ReasonUpstream = "upstream"
	ReasonCanceled = "canceled"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProxyErrors     *prometheus.CounterVec
	BuildInfo       *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with Go and process
// collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Edge requests by dispatch outcome and response status.",
		}, []string{"outcome", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Edge request latency by dispatch outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		ProxyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "proxy_errors_total",
			Help:      "Forwarding failures by reason.",
		}, []string{"reason"}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information; the value is always 1.",
		}, []string{"version", "commit", "go_version"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.ProxyErrors,
		r.BuildInfo,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing r in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}

// Register adds an additional collector to r.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// RecordRequest counts one edge request.
func (r *Registry) RecordRequest(outcome, status string) {
	r.RequestsTotal.WithLabelValues(outcome, status).Inc()
}

// ObserveRequestDuration records the latency of one edge request.
func (r *Registry) ObserveRequestDuration(outcome string, seconds float64) {
	r.RequestDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordProxyError counts one forwarding failure.
func (r *Registry) RecordProxyError(reason string) {
	r.ProxyErrors.WithLabelValues(reason).Inc()
}

// SetBuildInfo publishes the build information gauge.
func (r *Registry) SetBuildInfo(version, commit, goVersion string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
