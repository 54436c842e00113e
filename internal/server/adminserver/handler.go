package adminserver

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/statichost-go/internal/core/domain"
	"github.com/yndnr/statichost-go/internal/core/routing"
	"github.com/yndnr/statichost-go/internal/server/httpserver/handler"
	"github.com/yndnr/statichost-go/internal/telemetry/logger"
)

// Response is the envelope of admin JSON responses.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// RoutesData is the /routes payload.
type RoutesData struct {
	Count int               `json:"count"`
	Kinds map[string]int    `json:"kinds"`
	Rules []domain.RuleView `json:"rules"`
}

func newHandler(s *Server, rules *routing.RuleSet, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		if !s.Ready() {
			handler.WriteError(w, r, domain.ErrNotReady)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := requireToken(cfg.Token)

	mux.Handle("GET /routes", auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kinds := make(map[string]int)
		for k, n := range rules.CountByKind() {
			kinds[string(k)] = n
		}
		views := rules.Views()
		for i := range views {
			if views[i].Kind == domain.KindProxy {
				views[i].Target = logger.RedactURL(views[i].Target)
			}
		}
		writeJSON(w, http.StatusOK, RoutesData{
			Count: rules.Len(),
			Kinds: kinds,
			Rules: views,
		})
	})))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", auth(cfg.Metrics))
	}

	return mux
}

// requireToken guards next with a bearer token. An empty token disables
// the check.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="statichost-admin"`)
				handler.WriteError(w, r, domain.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Code:      "OK",
		Message:   "Success",
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
}
