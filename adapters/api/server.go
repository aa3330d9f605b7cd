// Package api exposes the ramp-fitting pipeline over HTTP for callers that
// prepare exposures elsewhere (calibration notebooks, batch drivers).
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rampfit/internal"
	"rampfit/ports"
)

// Server is the HTTP fitting service.
type Server struct {
	router  *chi.Mux
	repo    ports.FitRepository // optional; nil disables persistence
	logger  *internal.Logger
	workers int
}

// NewServer creates the fitting service. repo may be nil when no database
// is configured; fit summaries are then only returned, not stored.
func NewServer(repo ports.FitRepository, workers int, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:  chi.NewRouter(),
		repo:    repo,
		logger:  logger,
		workers: workers,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/fit", s.handleFit)
		r.Get("/summaries", s.handleListSummaries)
		r.Get("/summaries/{id}", s.handleGetSummary)
	})

	return s
}

// Router returns the HTTP handler for mounting or serving.
func (s *Server) Router() http.Handler { return s.router }

// Listen serves the API on the given address until the listener fails.
func (s *Server) Listen(addr string) error {
	s.logger.Info("fitting service listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
