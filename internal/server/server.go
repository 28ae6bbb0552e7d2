// Package server exposes the ingester's liveness, readiness, and Prometheus
// metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readyTimeout bounds a whole /readyz evaluation
const readyTimeout = 2 * time.Second

// Check is one named readiness condition, e.g. "ingest" or "store".
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server serves /healthz, /readyz and /metrics
type Server struct {
	httpServer *http.Server
	checks     []Check
	logger     *slog.Logger
}

// NewServer creates the HTTP server. /readyz succeeds only when every check passes.
func NewServer(addr string, logger *slog.Logger, checks ...Check) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		checks: checks,
		logger: logger.With("component", "http"),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start listens until Shutdown, then returns http.ErrServerClosed
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, readyResponse{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := readyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	code := http.StatusOK
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			resp.Checks[c.Name] = err.Error()
			resp.Status = "not ready"
			code = http.StatusServiceUnavailable
			s.logger.Debug("Readiness check failed", "check", c.Name, "error", err)
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
