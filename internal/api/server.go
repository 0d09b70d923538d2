// Package api exposes the ops HTTP surface for a running enrichment:
// health, Prometheus metrics, and a JSON progress snapshot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/progress/sinks"
)

// StatusProvider yields the current run snapshot. *sinks.StatusSink
// satisfies this.
type StatusProvider interface {
	Current() sinks.Snapshot
}

// Server wires the ops endpoints to an http.Server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the router and listener for the given port.
func NewServer(port int, registry *prometheus.Registry, status StatusProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, status.Current())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in a background goroutine. Listener failures are logged,
// not fatal: the enrichment run matters more than its ops surface.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("ops server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown ops server: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
