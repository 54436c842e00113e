// Package metric provides Prometheus metrics for statichost.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Collector exporting the compiled rule table
//
// Metrics include:
//
//   - statichost_requests_total{outcome,status}
//   - statichost_request_duration_seconds{outcome}
//   - statichost_proxy_errors_total{reason}
//   - statichost_rules{kind}
//   - statichost_build_info{version,commit,go_version}
//
// Metrics are exposed at /metrics on the admin listener.
package metric
