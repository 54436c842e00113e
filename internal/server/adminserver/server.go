package adminserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/server/config"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
)

// Config holds admin listener settings.
type Config struct {
	// Addr is "host:port" or "unix:/path/to.sock".
	Addr  string
	Token string
	// Metrics serves /metrics; nil leaves the path unregistered.
	Metrics http.Handler
	Logger  logger.Logger
}

// Server represents the admin server.
type Server struct {
	network    string
	address    string
	httpServer *http.Server
	listener   net.Listener
	running    atomic.Bool
	ready      atomic.Bool
	logger     logger.Logger
}

// ParseAddr splits an admin address into a network and an address.
func ParseAddr(addr string) (network, address string) {
	if path, ok := strings.CutPrefix(addr, config.UnixPrefix); ok {
		return "unix", path
	}
	return "tcp", addr
}

// New creates an admin server reporting on rules.
func New(cfg Config, rules *routing.RuleSet) *Server {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	network, address := ParseAddr(cfg.Addr)
	s := &Server{
		network: network,
		address: address,
		logger:  l,
	}
	s.httpServer = &http.Server{
		Handler:           newHandler(s, rules, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Listen binds the admin address. A stale Unix socket file left by a
// previous process is removed first.
func (s *Server) Listen() error {
	if s.network == "unix" {
		if err := os.Remove(s.address); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	ln, err := net.Listen(s.network, s.address)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve serves on the bound listener until Shutdown. It returns nil after
// a graceful shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("adminserver: Serve called before Listen")
	}

	s.running.Store(true)
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) || !s.running.Load() {
		return nil
	}
	return err
}

// ListenAndServe binds and serves.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// SetReady flips the readiness reported by /ready.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports the current readiness.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Shutdown marks the server unready, drains connections (respecting the
// context deadline) and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.Store(false)
	s.running.Store(false)

	err := s.httpServer.Shutdown(ctx)
	if s.network == "unix" {
		_ = os.Remove(s.address)
	}
	return err
}
