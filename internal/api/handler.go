// Package api provides HTTP handlers for the game API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/challenge-game/internal/feed"
	"github.com/ashureev/challenge-game/internal/game"
	"github.com/ashureev/challenge-game/internal/protocol"
)

const maxBodyBytes = 1 << 20

// Handler provides common handler utilities.
type Handler struct {
	sessions *game.Manager
	hub      *feed.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(sessions *game.Manager, hub *feed.Hub) *Handler {
	return &Handler{sessions: sessions, hub: hub}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a failed status with the given HTTP code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, protocol.Fail(message))
}

// decode reads a JSON body into v. On failure it writes a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Debug("Rejected request body", "path", r.URL.Path, "error", err)
		Error(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

// session resolves a live or stored game. Unknown ids are answered in-band
// like any other rule violation.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, sessionID string) (*game.Controller, bool) {
	ctrl, err := h.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, game.ErrSessionNotFound) {
		JSON(w, http.StatusOK, protocol.Fail("Invalid session ID"))
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load session", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "Failed to load session.")
		return nil, false
	}
	return ctrl, true
}

// save persists a session after a successful change. The change already
// happened in memory, so a failed write is logged rather than reported.
func (h *Handler) save(r *http.Request, sessionID string) {
	if err := h.sessions.Save(r.Context(), sessionID); err != nil {
		slog.Error("Failed to persist session", "error", err, "session_id", sessionID)
	}
}

// ruleError splits game errors into rule violations, answered in-band,
// and failures, answered with a 500. It returns nil for failures after
// writing the response.
func ruleError(w http.ResponseWriter, r *http.Request, err error) *game.RuleError {
	var re *game.RuleError
	if errors.As(err, &re) {
		return re
	}
	slog.Error("Game operation failed", "error", err, "path", r.URL.Path)
	Error(w, http.StatusInternalServerError, "The agents could not respond. Please try again.")
	return nil
}
