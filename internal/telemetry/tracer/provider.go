package tracer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names.
const (
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// DefaultServiceName is reported as service.name.
const DefaultServiceName = "statichost"

// Config configures the tracer provider.
type Config struct {
	Enabled     bool
	ServiceName string
	// Exporter is "stdout" or "none". With "none" spans are still created
	// so trace IDs reach the logs, but nothing is exported.
	Exporter string
	// Output receives stdout exporter records. Defaults to os.Stdout.
	Output io.Writer
}

// Option customizes the SDK provider.
type Option func(*[]sdktrace.TracerProviderOption)

// WithSpanProcessor adds a span processor, e.g. a tracetest.SpanRecorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(opts *[]sdktrace.TracerProviderOption) {
		*opts = append(*opts, sdktrace.WithSpanProcessor(sp))
	}
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	sdk          *sdktrace.TracerProvider
	tracer       trace.Tracer
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a tracer provider.
func New(cfg Config, opts ...Option) (*Provider, error) {
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(name)}, nil
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	}

	switch cfg.Exporter {
	case "", ExporterStdout:
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("tracer: create stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	case ExporterNone:
	default:
		return nil, fmt.Errorf("tracer: unknown exporter %q", cfg.Exporter)
	}

	for _, opt := range opts {
		opt(&tpOpts)
	}

	sdk := sdktrace.NewTracerProvider(tpOpts...)
	return &Provider{sdk: sdk, tracer: sdk.Tracer(name)}, nil
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Tracer returns the tracer used for edge spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Install makes p the global provider and enables W3C trace-context
// propagation.
func (p *Provider) Install() {
	if p.sdk != nil {
		otel.SetTracerProvider(p.sdk)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes pending spans and shuts down the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.sdk.Shutdown(ctx)
	})
	return p.shutdownErr
}
