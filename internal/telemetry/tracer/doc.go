// Package tracer provides request tracing for statichost.
//
// It wraps the OpenTelemetry SDK:
//
//   - provider.go: TracerProvider setup with a stdout exporter or no
//     exporter, W3C trace-context propagation, shutdown
//   - span.go: span helpers shared by the edge middleware and forwarder
//
// When tracing is disabled a no-op tracer is used so call sites never
// branch on configuration.
package tracer
