package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/server/httpserver/handler"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
	"github.com/yndnr/statichost-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the edge router.
type RouterConfig struct {
	// Dispatcher resolves request paths against the compiled rules.
	Dispatcher *routing.Dispatcher

	// Files serves directory rules.
	Files handler.FileServer

	// Forwarder serves proxy rules.
	Forwarder handler.Forwarder

	Logger logger.Logger

	// Metrics is optional; nil disables request metrics.
	Metrics *metric.Registry

	// Tracer is optional; nil disables request spans.
	Tracer trace.Tracer

	// AccessLog enables the per-request log record.
	AccessLog bool
}

// NewRouter builds the edge handler and its middleware chain.
//
// Order: RequestID -> Tracing -> Route -> Metrics -> AccessLog -> Recover -> Handler.
// Recover sits inside the observers so a recovered panic is still logged
// and counted as a 500.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	h := handler.New(cfg.Dispatcher, cfg.Files, cfg.Forwarder)

	middlewares := []Middleware{RequestID()}
	if cfg.Tracer != nil {
		middlewares = append(middlewares, Tracing(cfg.Tracer))
	}
	middlewares = append(middlewares, Route())
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(l))
	}
	middlewares = append(middlewares, Recover(l))

	return Chain(h, middlewares...)
}
