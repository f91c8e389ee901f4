// Package server exposes the prop board, parlay builder, calculator and saved
// slips over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"prop-parlay-engine/internal/engine"
	"prop-parlay-engine/internal/metrics"
	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/slips"
	"prop-parlay-engine/internal/stream"
)

const requestTimeout = 30 * time.Second

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	engine   *engine.Engine
	slips    *slips.DB
	hub      *stream.Hub
	metrics  *metrics.Metrics
	defaults parlay.Options

	// CORSOrigins, when non-empty, enables CORS for these origins ("*" for any).
	CORSOrigins []string
}

// New creates a Server. slipDB, hub and m may be nil; their routes are then
// not mounted.
func New(e *engine.Engine, slipDB *slips.DB, hub *stream.Hub, m *metrics.Metrics, defaults parlay.Options) *Server {
	return &Server{
		engine:   e,
		slips:    slipDB,
		hub:      hub,
		metrics:  m,
		defaults: defaults,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(s.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.hub != nil {
		// Upgraded connections outlive the request timeout.
		r.Get("/ws", s.hub.ServeWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/sports/{sport}", func(r chi.Router) {
			r.Get("/props", s.handleProps)
			r.Get("/books", s.handleBooks)
			r.Get("/games", s.handleGames)
			r.Get("/parlays", s.handleParlays)
			r.Get("/recommendations", s.handleRecommendations)
		})

		r.Post("/calculator", s.handleCalculator)

		if s.slips != nil {
			r.Post("/slips", s.handleCreateSlip)
			r.Get("/slips", s.handleListSlips)
			r.Get("/slips/{id}", s.handleGetSlip)
			r.Delete("/slips/{id}", s.handleDeleteSlip)
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": code, "message": msg})
}
