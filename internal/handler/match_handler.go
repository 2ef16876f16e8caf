package handler

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/auth"
	"github.com/freeeve/halite-fleet/internal/model"
	"github.com/freeeve/halite-fleet/internal/service"
)

// MatchHandler handles arena match endpoints.
type MatchHandler struct {
	matchSvc *service.MatchService
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(matchSvc *service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// CreateMatch handles POST /api/v1/matches. The match runs in the background;
// spectators follow it over the WebSocket.
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req service.StartMatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.matchSvc.StartMatch(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if op := auth.OperatorFromContext(r.Context()); op != "" {
		log.Info().Str("matchId", m.ID).Str("operator", op).Msg("Match started by operator")
	}
	writeJSON(w, http.StatusAccepted, m)
}

// ListMatches handles GET /api/v1/matches?limit=n
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}
	matches, err := h.matchSvc.ListMatches(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matchSvc.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTurns handles GET /api/v1/matches/{id}/turns
func (h *MatchHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.matchSvc.ListTurns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// StopMatch handles POST /api/v1/matches/{id}/stop
func (h *MatchHandler) StopMatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.matchSvc.StopMatch(id); err != nil {
		writeServiceError(w, err)
		return
	}
	if op := auth.OperatorFromContext(r.Context()); op != "" {
		log.Info().Str("matchId", id).Str("operator", op).Msg("Match stop requested")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping"})
}

// Leaderboard handles GET /api/v1/leaderboard?n=10
func (h *MatchHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	n, ok := intQuery(w, r, "n")
	if !ok {
		return
	}
	entries, err := h.matchSvc.Leaderboard(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// intQuery parses an optional non-negative integer query parameter. It writes
// a 400 and returns false when the value is malformed.
func intQuery(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
