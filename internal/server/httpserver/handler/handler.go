package handler

import (
	"net/http"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
	"github.com/yndnr/statichost-go/internal/telemetry/tracer"
)

// FileServer serves FileServe outcomes.
type FileServer interface {
	Serve(w http.ResponseWriter, r *http.Request, fs routing.FileServe) error
}

// Forwarder relays Forward outcomes.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, fw routing.Forward) error
}

// Handler is the edge handler. It is safe for concurrent use.
type Handler struct {
	dispatcher *routing.Dispatcher
	files      FileServer
	forwarder  Forwarder
}

// New creates a Handler.
func New(d *routing.Dispatcher, files FileServer, fwd Forwarder) *Handler {
	return &Handler{
		dispatcher: d,
		files:      files,
		forwarder:  fwd,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	outcome := h.dispatcher.MatchRequest(path, r.URL.Path, r.URL.RawQuery)

	info := RouteInfoFrom(r.Context())
	info.Rule = outcome.Rule()
	info.Outcome = outcome.Kind()
	tracer.Annotate(r.Context(),
		tracer.AttrRule.String(outcome.Rule()),
		tracer.AttrOutcome.String(string(outcome.Kind())),
	)

	var err error
	switch o := outcome.(type) {
	case routing.FileServe:
		err = h.files.Serve(w, r, o)
	case routing.Forward:
		target := logger.RedactURL(o.TargetURL)
		info.Target = target
		tracer.Annotate(r.Context(), tracer.AttrTarget.String(target))
		logger.L(r.Context()).Info("proxy", "path", path, "target", target)
		err = h.forwarder.Forward(w, r, o)
	case routing.NoMatch:
		err = domain.ErrNoMatchingRule.WithDetails(path)
	}

	if err != nil {
		WriteError(w, r, err)
	}
}
