package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"prop-parlay-engine/internal/calculator"
	"prop-parlay-engine/internal/engine"
	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/props"
	"prop-parlay-engine/internal/slips"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sports": s.engine.Sports()})
}

// sportProps resolves the {sport} path parameter to its current props,
// writing the error response itself when it fails.
func (s *Server) sportProps(w http.ResponseWriter, r *http.Request) (string, []props.Prop, bool) {
	sport := strings.ToLower(chi.URLParam(r, "sport"))
	all, err := s.engine.Props(sport)
	if errors.Is(err, engine.ErrUnknownSport) {
		writeError(w, http.StatusNotFound, "unknown_sport", "Sport is not tracked")
		return "", nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return "", nil, false
	}
	return sport, all, true
}

func (s *Server) handleProps(w http.ResponseWriter, r *http.Request) {
	sport, all, ok := s.sportProps(w, r)
	if !ok {
		return
	}
	filter, err := propFilter(r.URL.Query(), "minOdds", intPtr(defaultPropMinOdds))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	matched := props.Apply(all, filter)
	writeJSON(w, http.StatusOK, map[string]any{"sport": sport, "props": matched, "count": len(matched)})
}

type bookEntry struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	sport, all, ok := s.sportProps(w, r)
	if !ok {
		return
	}
	names := props.Bookmakers(all)
	books := make([]bookEntry, 0, len(names))
	for _, name := range names {
		books = append(books, bookEntry{Name: name, Display: props.FormatBook(name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sport": sport, "books": books})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	sport := strings.ToLower(chi.URLParam(r, "sport"))
	games, err := s.engine.Games(sport)
	if errors.Is(err, engine.ErrUnknownSport) {
		writeError(w, http.StatusNotFound, "unknown_sport", "Sport is not tracked")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sport": sport, "games": games})
}

func (s *Server) handleParlays(w http.ResponseWriter, r *http.Request) {
	sport := strings.ToLower(chi.URLParam(r, "sport"))
	q := r.URL.Query()

	// Legs come from the same filtered board as /props.
	filter, err := propFilter(q, "propMinOdds", intPtr(defaultPropMinOdds))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	switch strings.ToLower(q.Get("pool")) {
	case "", "filtered":
	case props.AllValue:
		// Every book's props; legs the selected book lacks are priced elsewhere.
		filter.Book = ""
	default:
		writeError(w, http.StatusBadRequest, "invalid_query", `pool must be "filtered" or "all"`)
		return
	}

	opts, err := parlayOptions(q, s.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	result, err := s.engine.Build(sport, filter, opts)
	if errors.Is(err, engine.ErrUnknownSport) {
		writeError(w, http.StatusNotFound, "unknown_sport", "Sport is not tracked")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sport":     sport,
		"parlays":   result.Parlays,
		"count":     len(result.Parlays),
		"generated": result.Generated,
		"truncated": result.Truncated,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	away, home := strings.TrimSpace(q.Get("awayTeam")), strings.TrimSpace(q.Get("homeTeam"))
	if away == "" || home == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "awayTeam and homeTeam are required")
		return
	}
	limit, err := parseInt(q, "limit", defaultRecommendLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_query", "limit must be a positive integer")
		return
	}

	sport, all, ok := s.sportProps(w, r)
	if !ok {
		return
	}
	recs := props.Recommend(all, away, home, limit)
	writeJSON(w, http.StatusOK, map[string]any{"sport": sport, "props": recs, "count": len(recs)})
}

type calculatorRequest struct {
	Legs     []int           `json:"legs"`
	BookOdds int             `json:"book_odds"`
	Stake    decimal.Decimal `json:"stake"`
}

func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}
	if req.Stake.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid_stake", "stake must not be negative")
		return
	}
	writeJSON(w, http.StatusOK, calculator.Calculate(req.Legs, req.BookOdds, req.Stake))
}

func (s *Server) handleCreateSlip(w http.ResponseWriter, r *http.Request) {
	var slip slips.Slip
	if err := json.NewDecoder(r.Body).Decode(&slip); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return
	}
	slip.Sport = strings.ToLower(slip.Sport)
	if !s.engine.Tracks(slip.Sport) {
		writeError(w, http.StatusBadRequest, "unknown_sport", "Sport is not tracked")
		return
	}
	if len(slip.Legs) < parlay.MinLegs || len(slip.Legs) > parlay.MaxLegs {
		writeError(w, http.StatusBadRequest, "invalid_legs", "a slip needs between 2 and 6 legs")
		return
	}
	for _, leg := range slip.Legs {
		if !leg.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_legs", "every leg needs a player and a priced bookmaker")
			return
		}
	}
	if slip.Book == "" {
		slip.Book = props.AllValue
	}
	if slip.TotalOdds == 0 {
		pricing, err := parlay.Price(slip.Legs, slip.Book)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_legs", err.Error())
			return
		}
		slip.TotalOdds = pricing.TotalOdds
	}

	saved, err := s.slips.Save(r.Context(), slip)
	if err != nil {
		slog.Error("Saving slip failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to save slip")
		return
	}
	if s.metrics != nil {
		s.metrics.SlipsSaved.Inc()
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSlips(w http.ResponseWriter, r *http.Request) {
	list, err := s.slips.List(r.Context(), strings.ToLower(r.URL.Query().Get("sport")))
	if err != nil {
		slog.Error("Listing slips failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to list slips")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slips": list, "count": len(list)})
}

func (s *Server) handleGetSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := s.slips.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, slips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Slip not found")
		return
	}
	if err != nil {
		slog.Error("Getting slip failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to get slip")
		return
	}
	writeJSON(w, http.StatusOK, slip)
}

func (s *Server) handleDeleteSlip(w http.ResponseWriter, r *http.Request) {
	err := s.slips.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, slips.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Slip not found")
		return
	}
	if err != nil {
		slog.Error("Deleting slip failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error", "Failed to delete slip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
