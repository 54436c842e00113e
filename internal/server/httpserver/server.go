package httpserver

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/statichost-go/internal/infra/tlsroots"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
)

// Config holds listener settings.
type Config struct {
	Addr              string
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
	Logger            logger.Logger
}

// Server represents the edge HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	certs      *tlsroots.Watcher
	logger     logger.Logger
}

// New creates a server. When a certificate pair is configured the server
// speaks HTTPS and reloads the pair on change.
func New(cfg Config, handler http.Handler) (*Server, error) {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ErrorLog:          slogErrorLog(l),
		},
		handler: handler,
		logger:  l,
	}

	if cfg.TLSCertFile != "" {
		w, err := tlsroots.NewWatcher(cfg.TLSCertFile, cfg.TLSKeyFile, tlsroots.WithLogger(logger.Slog(l)))
		if err != nil {
			return nil, err
		}
		s.certs = w
		s.httpServer.TLSConfig = w.ServerTLSConfig()
	}
	return s, nil
}

// TLS reports whether the server speaks HTTPS.
func (s *Server) TLS() bool {
	return s.certs != nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.certs == nil {
		return s.httpServer.Serve(ln)
	}
	s.certs.StartAsync()
	return s.httpServer.ServeTLS(ln, "", "")
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.certs != nil {
		s.certs.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

func slogErrorLog(l logger.Logger) *log.Logger {
	return slog.NewLogLogger(logger.Slog(l).Handler(), slog.LevelWarn)
}
