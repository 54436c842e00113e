package fileserver

import (
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
)

// Server resolves FileServe outcomes against the local filesystem.
// It holds no per-request state and is safe for concurrent use.
type Server struct {
	logger logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a file server.
func New(opts ...Option) *Server {
	s := &Server{logger: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve answers r for the matched directory rule.
//
// It returns nil once a response has been written. Otherwise it returns a
// *domain.DomainError (not found, forbidden, method not allowed, bad path)
// for the caller to render; nothing has been written in that case.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, fsv routing.FileServe) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		return domain.ErrMethodNotAllowed.WithDetails(r.Method)
	}

	escaped := r.URL.EscapedPath()
	rel, err := resolveURL(r.URL, fsv.Prefix)
	if err != nil {
		return domain.ErrBadPath.WithCause(err)
	}
	if !fsv.AllowListing && IsHidden(rel) {
		return domain.ErrFileNotFound.WithDetails(rel)
	}

	full := filepath.Join(fsv.LocalPath, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return statError(rel, err)
	}

	if !info.IsDir() {
		return s.serveFile(w, r, full)
	}

	if !strings.HasSuffix(escaped, "/") {
		redirectToSlash(w, r, escaped)
		return nil
	}

	index := filepath.Join(full, fsv.IndexFile)
	if fi, err := os.Stat(index); err == nil && !fi.IsDir() {
		return s.serveFile(w, r, index)
	}

	if !fsv.AllowListing {
		return domain.ErrFileNotFound.WithDetails(rel)
	}
	return s.serveListing(w, r, full, rel)
}

// Resolve strips prefix from the escaped request path and returns the
// cleaned, slash-rooted remainder. The remainder is unescaped before
// cleaning, so encoded dot segments cannot escape the root either.
func Resolve(escapedPath, prefix string) (string, error) {
	if !strings.HasPrefix(escapedPath, prefix) {
		return "", errPrefixMismatch
	}
	rest, err := url.PathUnescape(escapedPath[len(prefix):])
	if err != nil {
		return "", err
	}
	return cleanRel(rest)
}

var errPrefixMismatch = errors.New("request path does not start with the matched prefix")

// resolveURL strips prefix from the escaped path, or from the decoded path
// when the rule matched a mount written in decoded form.
func resolveURL(u *url.URL, prefix string) (string, error) {
	escaped := u.EscapedPath()
	if strings.HasPrefix(escaped, prefix) {
		return Resolve(escaped, prefix)
	}
	if strings.HasPrefix(u.Path, prefix) {
		return cleanRel(u.Path[len(prefix):])
	}
	return "", errPrefixMismatch
}

func cleanRel(rest string) (string, error) {
	if strings.ContainsRune(rest, 0) {
		return "", errors.New("path contains NUL")
	}
	return path.Clean("/" + rest), nil
}

// IsHidden reports whether any segment of rel starts with a dot.
func IsHidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func statError(rel string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return domain.ErrFileForbidden.WithDetails(rel).WithCause(err)
	}
	return domain.ErrFileNotFound.WithDetails(rel)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return statError(name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return statError(name, err)
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

func redirectToSlash(w http.ResponseWriter, r *http.Request, escaped string) {
	target := escaped + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusFound)
}
