package forwarder

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/infra/buildinfo"
	"github.com/yndnr/statichost-go/internal/infra/tlsroots"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
	"github.com/yndnr/statichost-go/internal/telemetry/metric"
)

// Defaults applied when Config fields are zero.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultDialTimeout  = 10 * time.Second
	DefaultMaxIdleConns = 100
)

const headerRequestID = "X-Request-ID"

// Config holds forwarder settings.
type Config struct {
	// Timeout bounds the wait for upstream response headers.
	Timeout      time.Duration
	DialTimeout  time.Duration
	MaxIdleConns int
	PassMethod   bool
	PreserveHost bool
	// CAFile extends the system roots used to verify HTTPS origins.
	CAFile string
}

// ErrorRenderer writes an error response for err.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, err error)

// Forwarder is a reverse proxy whose destination is chosen per request.
// It is safe for concurrent use.
type Forwarder struct {
	cfg       Config
	proxy     *httputil.ReverseProxy
	transport *http.Transport
	logger    logger.Logger
	metrics   *metric.Registry
	render    ErrorRenderer
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Forwarder) {
		f.logger = l
	}
}

// WithMetrics sets the registry that counts upstream failures.
func WithMetrics(m *metric.Registry) Option {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// WithErrorRenderer sets how upstream failures are written to the client.
func WithErrorRenderer(fn ErrorRenderer) Option {
	return func(f *Forwarder) {
		f.render = fn
	}
}

type targetKey struct{}

// New creates a forwarder.
func New(cfg Config, opts ...Option) (*Forwarder, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = DefaultMaxIdleConns
	}

	roots, err := tlsroots.LoadPool(cfg.CAFile)
	if err != nil {
		return nil, domain.ErrInvalidSettings.WithDetails("proxy.ca_file").WithCause(err)
	}

	f := &Forwarder{
		cfg:    cfg,
		logger: logger.Default(),
		render: plainError,
	}
	for _, opt := range opts {
		opt(f)
	}
	if n := roots.Added(); n > 0 {
		f.logger.Info("upstream CA bundle loaded", "file", cfg.CAFile, "certificates", n)
	}

	f.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.DialTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       roots.TLSConfig(),
	}

	f.proxy = &httputil.ReverseProxy{
		Rewrite:        f.rewrite,
		Transport:      f.transport,
		ModifyResponse: dropUpstreamRequestID,
		ErrorHandler:   f.handleError,
	}
	return f, nil
}

// Forward relays r to fw.TargetURL and writes the origin's response to w.
//
// A non-nil return means nothing was written and the caller must render
// the error. Failures after the request was sent are rendered through the
// ErrorRenderer and Forward returns nil.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, fw routing.Forward) error {
	target, err := url.Parse(fw.TargetURL)
	if err != nil || target.Host == "" {
		return domain.ErrInvalidTargetURL.WithDetails(logger.RedactURL(fw.TargetURL))
	}

	ctx := context.WithValue(r.Context(), targetKey{}, target)
	f.proxy.ServeHTTP(w, r.WithContext(ctx))
	return nil
}

// Close releases idle upstream connections.
func (f *Forwarder) Close() {
	f.transport.CloseIdleConnections()
}

func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	target := pr.In.Context().Value(targetKey{}).(*url.URL)
	out := *target
	pr.Out.URL = &out

	if !f.cfg.PassMethod {
		pr.Out.Method = http.MethodGet
		pr.Out.Body = http.NoBody
		pr.Out.ContentLength = 0
		pr.Out.TransferEncoding = nil
		pr.Out.Header.Del("Content-Length")
		pr.Out.Header.Del("Content-Type")
	}

	if f.cfg.PreserveHost {
		pr.Out.Host = pr.In.Host
	} else {
		pr.Out.Host = ""
	}

	pr.SetXForwarded()
	if _, ok := pr.Out.Header["User-Agent"]; !ok {
		pr.Out.Header.Set("User-Agent", buildinfo.UserAgent())
	}
	otel.GetTextMapPropagator().Inject(pr.In.Context(), propagation.HeaderCarrier(pr.Out.Header))
}

// dropUpstreamRequestID removes the origin's X-Request-ID when the edge
// has already assigned one, so the client sees a single value.
func dropUpstreamRequestID(resp *http.Response) error {
	if logger.RequestIDFromContext(resp.Request.Context()) != "" {
		resp.Header.Del(headerRequestID)
	}
	return nil
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var target string
	if u, ok := r.Context().Value(targetKey{}).(*url.URL); ok {
		target = logger.RedactURL(u.String())
	}

	reason, derr := Classify(err)
	if f.metrics != nil {
		f.metrics.RecordProxyError(reason)
	}

	log := logger.L(r.Context())
	if reason == metric.ReasonCanceled {
		log.Debug("client went away during forward", "target", target)
	} else {
		log.Warn("forward failed", "target", target, "reason", reason, "error", err)
	}

	f.render(w, r, derr)
}

// Classify maps a transport error to a metric reason and the domain error
// reported to the client.
func Classify(err error) (string, *domain.DomainError) {
	if errors.Is(err, context.Canceled) {
		return metric.ReasonCanceled, domain.ErrUpstreamFailed.WithCause(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return metric.ReasonTimeout, domain.ErrUpstreamTimeout.WithCause(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return metric.ReasonTimeout, domain.ErrUpstreamTimeout.WithCause(err)
	}
	return metric.ReasonUpstream, domain.ErrUpstreamFailed.WithCause(err)
}

func plainError(w http.ResponseWriter, _ *http.Request, err error) {
	http.Error(w, err.Error(), domain.HTTPStatusOf(err))
}
