package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-local/internal/entity"
)

type leaderboardService interface {
	List(ctx context.Context) ([]entity.LeaderboardEntry, error)
	Clear(ctx context.Context) error
}

type preferencesService interface {
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, enabled bool) error
}

type preferences struct {
	DarkMode *bool `json:"dark_mode"`
}

type handlers struct {
	logger      *slog.Logger
	leaderboard leaderboardService
	preferences preferencesService
}

func newHandlers(logger *slog.Logger, leaderboard leaderboardService, preferences preferencesService) *handlers {
	return &handlers{
		logger:      logger,
		leaderboard: leaderboard,
		preferences: preferences,
	}
}

func (that *handlers) ListLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := that.leaderboard.List(r.Context())
	if err != nil {
		that.logger.Error("failed to list leaderboard", "error", err)
		http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, entries)
}

func (that *handlers) ClearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := that.leaderboard.Clear(r.Context()); err != nil {
		that.logger.Error("failed to clear leaderboard", "error", err)
		http.Error(w, "Failed to clear leaderboard", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	darkMode, err := that.preferences.DarkMode(r.Context())
	if err != nil {
		that.logger.Error("failed to read dark mode", "error", err)
		http.Error(w, "Failed to get preferences", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, preferences{DarkMode: &darkMode})
}

func (that *handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body preferences
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if body.DarkMode == nil {
		http.Error(w, "dark_mode is required", http.StatusBadRequest)
		return
	}

	if err := that.preferences.SetDarkMode(r.Context(), *body.DarkMode); err != nil {
		that.logger.Error("failed to save dark mode", "error", err)
		http.Error(w, "Failed to save preferences", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
