package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/forecast"
	"github.com/ddaros/financas/internal/logger"
)

// ForecastsHandler handles the /api/forecasts endpoints.
type ForecastsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

func NewForecastsHandler(store TransactionStore, log zerolog.Logger) *ForecastsHandler {
	return &ForecastsHandler{store: store, log: log}
}

// ListForecasts handles GET /api/forecasts.
func (h *ForecastsHandler) ListForecasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	forecasts, err := h.store.ListForecasts(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list forecasts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list forecasts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"forecasts": forecasts,
		"count":     len(forecasts),
	})
}

// GenerateForecasts handles POST /api/forecasts/generate, running both
// forecaster passes and reporting how many rows were created.
func (h *ForecastsHandler) GenerateForecasts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	ctx = logger.WithContext(ctx, logger.WithOwner(h.log, owner))

	created, err := forecast.Generate(ctx, h.store, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Forecast generation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate forecasts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{
		"created": created,
	})
}

// MarkForecastPaid handles PUT /api/forecasts: confirms a forecast with the
// amount actually charged.
func (h *ForecastsHandler) MarkForecastPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req struct {
		TransactionID string  `json:"transaction_id"`
		Paid          bool    `json:"paid"`
		Amount        float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "transaction_id is required")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	if err := h.store.MarkForecastPaid(ctx, owner, req.TransactionID, req.Paid, req.Amount); err != nil {
		h.log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("Failed to mark forecast paid")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update forecast")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
