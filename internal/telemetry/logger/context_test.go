package logger

import (
	"context"
	"testing"
)

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || TraceIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no IDs")
	}

	ctx = WithTraceID(WithRequestID(ctx, "req-123"), "trace-456")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := TraceIDFromContext(ctx); got != "trace-456" {
		t.Errorf("TraceIDFromContext() = %q", got)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}

	l, buf := newBuffered(t, "info")
	FromContext(WithLogger(context.Background(), l)).Info("stored")
	if buf.Len() == 0 {
		t.Error("stored logger was not used")
	}
}

func TestL(t *testing.T) {
	l, buf := newBuffered(t, "info")

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-7")
	L(ctx).Info("handled")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["request_id"] != "req-7" {
		t.Errorf("lines = %v", lines)
	}
	if _, ok := lines[0]["trace_id"]; ok {
		t.Error("trace_id should be absent when not set")
	}
}

func TestEnrich(t *testing.T) {
	l, buf := newBuffered(t, "info")

	// The context carries IDs but no logger; Enrich must use l, not the default.
	ctx := WithTraceID(WithRequestID(context.Background(), "req-9"), "abc123")
	Enrich(l, ctx).Info("enriched")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["request_id"] != "req-9" || lines[0]["trace_id"] != "abc123" {
		t.Errorf("lines = %v", lines)
	}
}
