package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddaros/financas/internal/api/middleware"
	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/forecast"
)

// fakeTransactionStore keeps rows in memory, enough of TransactionStore for
// handler tests.
type fakeTransactionStore struct {
	rows       []*domain.Transaction
	updates    []string
	markedPaid []string
	deleted    []string
}

func (s *fakeTransactionStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	s.rows = append(s.rows, txs...)
	return nil
}

func (s *fakeTransactionStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range s.rows {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) ListForecasts(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.IsForecast {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) UpdateField(ctx context.Context, ownerID, transactionID, field string, value interface{}) error {
	s.updates = append(s.updates, field)
	return nil
}

func (s *fakeTransactionStore) MarkForecastPaid(ctx context.Context, ownerID, transactionID string, paid bool, amount float64) error {
	s.markedPaid = append(s.markedPaid, transactionID)
	return nil
}

func (s *fakeTransactionStore) DeleteByIDs(ctx context.Context, ownerID string, ids []string) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

func (s *fakeTransactionStore) InstallmentSlotExists(ctx context.Context, ownerID, description string, amount float64, current, total int) (bool, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.Description == description && t.Amount == amount &&
			t.InstallmentCurrent == current && t.InstallmentTotal == total {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTransactionStore) ForecastSlotExists(ctx context.Context, ownerID, description string, current, total int) (bool, error) {
	return false, nil
}

func (s *fakeTransactionStore) ForecastExistsOnOrAfter(ctx context.Context, ownerID, description string, from time.Time) (bool, error) {
	return false, nil
}

func (s *fakeTransactionStore) InstallmentGroups(ctx context.Context, ownerID string) ([]forecast.InstallmentGroup, error) {
	return nil, nil
}

func (s *fakeTransactionStore) RecurringGroups(ctx context.Context, ownerID string, minCount int) ([]forecast.RecurringGroup, error) {
	return nil, nil
}

func (s *fakeTransactionStore) FirstByGroup(ctx context.Context, ownerID, description string, installmentTotal int) (*domain.Transaction, error) {
	return nil, nil
}

func (s *fakeTransactionStore) FirstByDescription(ctx context.Context, ownerID, description string) (*domain.Transaction, error) {
	return nil, nil
}

func authed(r *http.Request, owner string) *http.Request {
	rec := httptest.NewRecorder()
	var out *http.Request
	middleware.Auth(http.HandlerFunc(func(w http.ResponseWriter, rr *http.Request) {
		out = rr
	})).ServeHTTP(rec, withUser(r, owner))
	return out
}

func withUser(r *http.Request, owner string) *http.Request {
	r.Header.Set("X-User-ID", owner)
	return r
}

func TestSaveTransactions_ExpandsInstallments(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"transactions": [{
		"description": "Netflix 1/3",
		"amount": 55.90,
		"date_incurred": "2024-01-10",
		"installment_current": 1,
		"installment_total": 3
	}]}`

	req := authed(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	h.SaveTransactions(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["saved"] != 3 {
		t.Errorf("saved = %d, want 3", resp["saved"])
	}
	if len(store.rows) != 3 {
		t.Fatalf("store has %d rows, want 3", len(store.rows))
	}

	forecasts := 0
	for _, tx := range store.rows {
		if tx.OwnerID != "alice" {
			t.Errorf("row owner = %s", tx.OwnerID)
		}
		if tx.IsForecast {
			forecasts++
		}
	}
	if forecasts != 2 {
		t.Errorf("forecast rows = %d, want 2", forecasts)
	}
}

func TestSaveTransactions_SimpleChargeSavesOneRow(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"transactions": [{"description": "Padaria", "amount": 12.50, "date_incurred": "2024-03-02"}]}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	h.SaveTransactions(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(store.rows) != 1 || store.rows[0].IsForecast {
		t.Errorf("rows = %+v, want one realized row", store.rows)
	}
}

func TestSaveTransactions_BadDateRejected(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"transactions": [{"description": "X", "amount": 1, "date_incurred": "10/01/2024"}]}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	h.SaveTransactions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(store.rows) != 0 {
		t.Errorf("store should be untouched, has %d rows", len(store.rows))
	}
}

func TestUpdateTransaction(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"transaction_id": "tx-1", "field": "category", "value": "Mercado"}`
	req := authed(httptest.NewRequest(http.MethodPut, "/api/transactions", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	h.UpdateTransaction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.updates) != 1 || store.updates[0] != "category" {
		t.Errorf("updates = %v", store.updates)
	}
}

func TestMarkForecastPaid_Validation(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewForecastsHandler(store, zerolog.Nop())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"transaction_id": "f-1", "paid": true, "amount": 57.20}`, http.StatusOK},
		{"missing id", `{"paid": true, "amount": 57.20}`, http.StatusBadRequest},
		{"non-positive amount", `{"transaction_id": "f-1", "paid": true, "amount": 0}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodPut, "/api/forecasts", strings.NewReader(tc.body)), "alice")
			rec := httptest.NewRecorder()

			h.MarkForecastPaid(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}

	if len(store.markedPaid) != 1 || store.markedPaid[0] != "f-1" {
		t.Errorf("markedPaid = %v", store.markedPaid)
	}
}

func TestGetDashboard_PeriodValidation(t *testing.T) {
	store := &fakeTransactionStore{
		rows: []*domain.Transaction{
			{OwnerID: "alice", Description: "A", Amount: 10,
				DateIncurred: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
			{OwnerID: "alice", Description: "B", Amount: 20,
				DateIncurred: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)},
		},
	}
	h := NewDashboardHandler(store, zerolog.Nop())

	req := authed(httptest.NewRequest(http.MethodGet, "/api/dashboard?month=3&year=2024", nil), "alice")
	rec := httptest.NewRecorder()

	h.GetDashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var summary struct {
		TotalSpent float64 `json:"totalSpent"`
		Count      int     `json:"transactionCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if summary.TotalSpent != 10 || summary.Count != 1 {
		t.Errorf("summary = %+v, want only the March row", summary)
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/dashboard?month=13", nil), "alice")
	rec = httptest.NewRecorder()
	h.GetDashboard(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month=13 status = %d, want 400", rec.Code)
	}
}

func TestListTransactions_OwnerScoped(t *testing.T) {
	store := &fakeTransactionStore{
		rows: []*domain.Transaction{
			{OwnerID: "alice", Description: "A", Amount: 10},
			{OwnerID: "bob", Description: "B", Amount: 20},
		},
	}
	h := NewTransactionsHandler(store, zerolog.Nop())

	req := authed(httptest.NewRequest(http.MethodGet, "/api/transactions", nil), "alice")
	rec := httptest.NewRecorder()

	h.ListTransactions(rec, req)

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(`"B"`)) {
		t.Error("response leaked another owner's transaction")
	}
}

func TestDeleteTransactions(t *testing.T) {
	store := &fakeTransactionStore{}
	h := NewTransactionsHandler(store, zerolog.Nop())

	body := `{"ids": ["t1", "t2"]}`
	req := authed(httptest.NewRequest(http.MethodDelete, "/api/transactions", strings.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	h.DeleteTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted = %v", store.deleted)
	}
}
