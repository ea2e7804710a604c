package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/chartguess/internal/game"
	"github.com/wonny/chartguess/pkg/logger"
)

// SeriesHandler handles price series API endpoints
type SeriesHandler struct {
	loader game.SeriesLoader
	logger *logger.Logger
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(loader game.SeriesLoader, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{
		loader: loader,
		logger: log,
	}
}

// DailyPointResponse represents one trading day for API responses
type DailyPointResponse struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// GetDaily returns the daily close series for a symbol
// GET /api/series/{symbol}/daily?days=100
func (h *SeriesHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := mux.Vars(r)["symbol"]

	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	// Parse days parameter (default: 100)
	days := 100
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	loaded, err := h.loader.Load(ctx, symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load series")
		respondGameError(w, err)
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	result := make([]DailyPointResponse, 0, loaded.Len())
	for i := 0; i < loaded.Len(); i++ {
		p := loaded.At(i)
		if p.Date.Before(cutoff) {
			continue
		}
		result = append(result, DailyPointResponse{
			Date:  p.Date.Format("2006-01-02"),
			Close: p.Close,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"symbol":  loaded.Symbol(),
		"data":    result,
	})
}
