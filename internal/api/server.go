// Package api provides the HTTP layer for the risk inference service:
// query endpoints over the cascade engine and state manager, a
// server-sent-events prediction feed, and a structured ingestion
// endpoint, assembled on a chi router.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riskcore/internal/cascade"
	"riskcore/internal/domain"
	"riskcore/internal/fanout"
	"riskcore/internal/preprocessor"
	"riskcore/internal/state"
)

// Server is the risk inference service's HTTP API server.
type Server struct {
	engine         *cascade.Engine
	pre            *preprocessor.Preprocessor
	mgr            *state.Manager
	hub            *fanout.Hub
	metricsEnabled bool
}

// NewServer constructs a Server wired to a running cascade engine, state
// manager, and fan-out hub.
func NewServer(engine *cascade.Engine, mgr *state.Manager, hub *fanout.Hub) *Server {
	return &Server{
		engine: engine,
		pre:    preprocessor.New(),
		mgr:    mgr,
		hub:    hub,
	}
}

// EnableMetrics turns on the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/localities/{locality}/snapshot", s.handleSnapshot)
		r.Get("/localities/{locality}/risk", s.handleRiskAssessment)
		r.Post("/localities/{locality}/scenario/delta", s.handleScenarioDelta)
		r.Post("/localities/{locality}/scenario/policy", s.handleScenarioPolicy)
		r.Post("/cascade/analyze", s.handleCascadeAnalysis)
		r.Get("/scenario/presets", s.handleScenarioPresets)

		r.Get("/stream/predictions", s.handlePredictionStream)
		r.Post("/stream/control", s.handleStreamControl)
		r.Post("/ingest", s.handleIngest)
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error envelope (§7 "user-visible failure
// behavior"): a machine-readable kind and a human-readable message, never a
// stack trace.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

// writeDomainError translates a domain error into a response envelope
// (§10.3 "HTTP handlers translate these to response envelopes"). A
// *domain.ValidationError carries its own machine-readable kind; any other
// error sourced from domain falls back to a kind derived from the sentinel
// it wraps.
func writeDomainError(w http.ResponseWriter, status int, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, status, verr.Kind, verr.Message)
		return
	}
	if errors.Is(err, domain.ErrUnknownPreset) {
		writeError(w, status, "unknown_preset", err.Error())
		return
	}
	writeError(w, status, "validation_error", err.Error())
}

// corsMiddleware adds permissive CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
