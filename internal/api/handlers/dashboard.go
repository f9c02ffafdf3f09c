package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/dashboard"
)

// DashboardHandler handles GET /api/dashboard.
type DashboardHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

func NewDashboardHandler(store TransactionStore, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, log: log}
}

// GetDashboard aggregates the owner's transactions for an optional
// month/year period passed as query parameters.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	period, errMsg := parsePeriod(r)
	if errMsg != "" {
		middleware.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	txs, err := h.store.ListByOwner(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions for dashboard")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	summary := dashboard.Aggregate(txs, period)
	middleware.WriteJSON(w, http.StatusOK, summary)
}

func parsePeriod(r *http.Request) (dashboard.PeriodFilter, string) {
	var period dashboard.PeriodFilter

	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return period, "month must be between 1 and 12"
		}
		period.Month = m
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 {
			return period, "year is invalid"
		}
		period.Year = y
	}

	return period, ""
}
