package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/forecast"
	"github.com/ddaros/financas/internal/logger"
)

// TransactionStore is the transaction persistence the handlers need;
// *bigquery.TransactionRepository satisfies it. It embeds forecast.Store so
// saving a candidate can run the installment expander against the same
// repository.
type TransactionStore interface {
	forecast.Store

	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Transaction, error)
	ListForecasts(ctx context.Context, ownerID string) ([]*domain.Transaction, error)
	UpdateField(ctx context.Context, ownerID, transactionID, field string, value interface{}) error
	MarkForecastPaid(ctx context.Context, ownerID, transactionID string, paid bool, amount float64) error
	DeleteByIDs(ctx context.Context, ownerID string, ids []string) error
}

// TransactionsHandler handles the /api/transactions endpoints.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /api/transactions.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	txs, err := h.store.ListByOwner(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// savedTransaction is one reviewed candidate the client selected for
// saving.
type savedTransaction struct {
	Description        string  `json:"description"`
	Amount             float64 `json:"amount"`
	DateIncurred       string  `json:"date_incurred"`
	DatePayment        string  `json:"date_payment"`
	Category           string  `json:"category"`
	BehaviorClass      string  `json:"behavior_class"`
	InstallmentCurrent int     `json:"installment_current"`
	InstallmentTotal   int     `json:"installment_total"`
	Entity             string  `json:"entity"`
	PaymentMethod      string  `json:"payment_method"`
	BankName           string  `json:"bank_name"`
	CardName           string  `json:"card_name"`
	CardHolder         string  `json:"card_holder"`
	SourceFile         string  `json:"source_file"`
	DocumentID         string  `json:"document_id"`
}

// SaveTransactions handles POST /api/transactions. Each selected candidate
// is expanded into its full installment set (a single 1/1 charge expands to
// itself) and the resulting rows are inserted.
func (h *TransactionsHandler) SaveTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req struct {
		Transactions []savedTransaction `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transactions provided")
		return
	}

	ctx = logger.WithContext(ctx, logger.WithOwner(h.log, owner))

	saved := 0
	for _, item := range req.Transactions {
		tx, err := item.toDomain(owner)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		rows, err := forecast.Expand(ctx, h.store, owner, tx)
		if err != nil {
			h.log.Error().Err(err).Str("description", tx.Description).Msg("Failed to expand transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transactions")
			return
		}

		if err := h.store.InsertTransactions(ctx, rows); err != nil {
			h.log.Error().Err(err).Str("description", tx.Description).Msg("Failed to insert transactions")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save transactions")
			return
		}
		saved += len(rows)
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]int{
		"saved": saved,
	})
}

func (s savedTransaction) toDomain(owner string) (*domain.Transaction, error) {
	dateIncurred, err := parseDate(s.DateIncurred, "date_incurred")
	if err != nil {
		return nil, err
	}
	datePayment, err := parseDate(s.DatePayment, "date_payment")
	if err != nil {
		return nil, err
	}
	if datePayment.IsZero() {
		datePayment = dateIncurred
	}

	current, total := s.InstallmentCurrent, s.InstallmentTotal
	if current == 0 {
		current = 1
	}
	if total == 0 {
		total = 1
	}

	return &domain.Transaction{
		OwnerID:            owner,
		DateIncurred:       dateIncurred,
		DatePayment:        datePayment,
		Description:        s.Description,
		Amount:             s.Amount,
		Currency:           domain.Currency,
		Category:           s.Category,
		BehaviorClass:      s.BehaviorClass,
		InstallmentCurrent: current,
		InstallmentTotal:   total,
		Entity:             s.Entity,
		PaymentMethod:      s.PaymentMethod,
		BankName:           s.BankName,
		CardName:           s.CardName,
		CardHolder:         s.CardHolder,
		SourceFile:         s.SourceFile,
		DocumentID:         s.DocumentID,
	}, nil
}

// UpdateTransaction handles PUT /api/transactions: a single allow-listed
// field update.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req struct {
		TransactionID string      `json:"transaction_id"`
		Field         string      `json:"field"`
		Value         interface{} `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TransactionID == "" || req.Field == "" {
		middleware.WriteError(w, http.StatusBadRequest, "transaction_id and field are required")
		return
	}

	if err := h.store.UpdateField(ctx, owner, req.TransactionID, req.Field, req.Value); err != nil {
		h.log.Error().Err(err).Str("field", req.Field).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteTransactions handles DELETE /api/transactions with a JSON body of
// ids.
func (h *TransactionsHandler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := middleware.OwnerFromContext(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No ids provided")
		return
	}

	if err := h.store.DeleteByIDs(ctx, owner, req.IDs); err != nil {
		h.log.Error().Err(err).Int("count", len(req.IDs)).Msg("Failed to delete transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"deleted": len(req.IDs)})
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		if field == "date_incurred" {
			return time.Time{}, &fieldError{field}
		}
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &fieldError{field}
	}
	return d, nil
}

type fieldError struct {
	field string
}

func (e *fieldError) Error() string {
	return "invalid or missing field: " + e.field
}
