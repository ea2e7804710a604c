package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/chartguess/internal/game"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/logger"
)

// GameHandler handles game session API endpoints
// ⭐ SSOT: 게임 API 핸들러는 이 구조체에서만
type GameHandler struct {
	manager *game.Manager
	logger  *logger.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(manager *game.Manager, log *logger.Logger) *GameHandler {
	return &GameHandler{
		manager: manager,
		logger:  log,
	}
}

// StartRequest is the body of POST /api/game/{id}/start
type StartRequest struct {
	Symbol string `json:"symbol"`
}

// GuessRequest is the body of POST /api/game/{id}/guess
type GuessRequest struct {
	Direction string `json:"direction"`
}

// Start starts (or restarts) a game session
// POST /api/game/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	result, err := h.manager.Start(ctx, id, req.Symbol)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"session": id,
			"symbol":  req.Symbol,
		}).Error("Failed to start game")
		respondGameError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Guess applies a guess to a game session
// POST /api/game/{id}/guess
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	direction, err := game.ParseDirection(req.Direction)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.manager.Guess(id, direction)
	if err != nil {
		respondGameError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// State returns the current window and score of a game session
// GET /api/game/{id}
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.manager.State(id)
	if err != nil {
		respondGameError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Drop discards a game session
// DELETE /api/game/{id}
func (h *GameHandler) Drop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	h.manager.Drop(id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "dropped"})
}

// respondGameError maps engine errors onto HTTP status codes. Every kind
// surfaces as user-visible status text; nothing is retried here.
func respondGameError(w http.ResponseWriter, err error) {
	var de *series.DataError
	if errors.As(err, &de) {
		switch de.Kind {
		case series.DataNotFound:
			respondError(w, http.StatusNotFound, "Unknown ticker symbol")
		case series.DataRateLimited:
			respondError(w, http.StatusTooManyRequests, "Data provider is throttling. Wait a minute and try again.")
		default:
			respondError(w, http.StatusBadGateway, "Data provider returned a malformed payload")
		}
		return
	}

	switch {
	case errors.Is(err, series.ErrNoCandidate), errors.Is(err, game.ErrInsufficientHistory):
		respondError(w, http.StatusUnprocessableEntity, "Insufficient history for this symbol")
	case errors.Is(err, game.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "No game in progress for this session")
	case errors.Is(err, game.ErrSessionBusy):
		respondError(w, http.StatusConflict, "A start is already in progress for this session")
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
