package handler

import (
	"errors"
	"net/http"
	"strconv"

	"brainbrawl/internal/model"
	"brainbrawl/internal/repository"
	"brainbrawl/internal/service"
	"brainbrawl/internal/transport/rest/middleware"
)

const defaultLeaderboardSize = 10

// StatsHandler exposes player stats and the global leaderboard.
type StatsHandler struct {
	statsSvc *service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsSvc *service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// Profile handles GET /v1/stats/profile
func (h *StatsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.statsSvc.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Leaderboard handles GET /v1/stats/leaderboard?limit=N
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.statsSvc.TopPlayers(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
	})
}

// Categories handles GET /v1/categories
func (h *StatsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": model.ValidCategories,
	})
}
