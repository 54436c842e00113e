package tracer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	ctx, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	if id := TraceID(ctx); id != "" {
		t.Errorf("TraceID() = %q, want empty for no-op tracer", id)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	if _, err := New(Config{Enabled: true, Exporter: "jaeger"}); err == nil {
		t.Error("New() expected error for unknown exporter")
	}
}

func TestProvider_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	p, err := New(Config{Enabled: true, Exporter: ExporterNone}, WithSpanProcessor(rec))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	ctx, span := p.Tracer().Start(context.Background(), "GET /api")
	Annotate(ctx, AttrRule.String("/api"), AttrOutcome.String("proxy"))
	Fail(ctx, errors.New("upstream refused"))

	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty for a recording span")
	}
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	s := ended[0]
	if s.Name() != "GET /api" {
		t.Errorf("Name() = %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("Status = %v, want Error", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("expected an exception event")
	}

	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["statichost.rule"] != "/api" || attrs["statichost.outcome"] != "proxy" {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestProvider_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, Exporter: ExporterStdout, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := p.Tracer().Start(context.Background(), "exported-span")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "exported-span") {
		t.Errorf("stdout exporter output missing span: %s", buf.String())
	}
}

func TestProvider_ShutdownTwice(t *testing.T) {
	p, err := New(Config{Enabled: true, Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestTraceID_EmptyContext(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Errorf("TraceID() = %q", id)
	}
}
