package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/ddaros/financas/internal/domain"
)

// fakeStore is an in-memory Store mirroring the BigQuery repository's
// query semantics, used by the expander and generator tests.
type fakeStore struct {
	rows []*domain.Transaction

	// failInsertDescription makes inserts for one description fail, to
	// exercise per-group failure isolation.
	failInsertDescription string
	inserts               int
}

func (s *fakeStore) InstallmentSlotExists(ctx context.Context, ownerID, description string, amount float64, current, total int) (bool, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.Description == description && t.Amount == amount &&
			t.InstallmentCurrent == current && t.InstallmentTotal == total {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ForecastSlotExists(ctx context.Context, ownerID, description string, current, total int) (bool, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.IsForecast && t.Description == description &&
			t.InstallmentCurrent == current && t.InstallmentTotal == total {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ForecastExistsOnOrAfter(ctx context.Context, ownerID, description string, from time.Time) (bool, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.IsForecast && t.Description == description &&
			!t.DateIncurred.Before(from) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) InstallmentGroups(ctx context.Context, ownerID string) ([]InstallmentGroup, error) {
	type key struct {
		desc  string
		total int
	}
	groups := make(map[key]*InstallmentGroup)
	var order []key

	for _, t := range s.rows {
		if t.OwnerID != ownerID || t.IsForecast || t.InstallmentTotal <= 1 {
			continue
		}
		k := key{t.Description, t.InstallmentTotal}
		g, ok := groups[k]
		if !ok {
			g = &InstallmentGroup{Description: t.Description, InstallmentTotal: t.InstallmentTotal}
			groups[k] = g
			order = append(order, k)
		}
		if t.InstallmentCurrent > g.MaxCurrent {
			g.MaxCurrent = t.InstallmentCurrent
		}
		if t.DateIncurred.After(g.LatestIncurred) {
			g.LatestIncurred = t.DateIncurred
		}
		if t.DatePayment.After(g.LatestPayment) {
			g.LatestPayment = t.DatePayment
		}
	}

	out := make([]InstallmentGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	return out, nil
}

func (s *fakeStore) RecurringGroups(ctx context.Context, ownerID string, minCount int) ([]RecurringGroup, error) {
	groups := make(map[string]*RecurringGroup)
	sums := make(map[string]float64)
	var order []string

	for _, t := range s.rows {
		if t.OwnerID != ownerID || t.IsForecast {
			continue
		}
		g, ok := groups[t.Description]
		if !ok {
			g = &RecurringGroup{Description: t.Description}
			groups[t.Description] = g
			order = append(order, t.Description)
		}
		g.Count++
		sums[t.Description] += t.Amount
		if t.DateIncurred.After(g.LatestIncurred) {
			g.LatestIncurred = t.DateIncurred
		}
	}

	var out []RecurringGroup
	for _, desc := range order {
		g := groups[desc]
		if g.Count < minCount {
			continue
		}
		g.AvgAmount = sums[desc] / float64(g.Count)
		out = append(out, *g)
	}
	return out, nil
}

func (s *fakeStore) FirstByGroup(ctx context.Context, ownerID, description string, installmentTotal int) (*domain.Transaction, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && !t.IsForecast && t.Description == description && t.InstallmentTotal == installmentTotal {
			return t, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FirstByDescription(ctx context.Context, ownerID, description string) (*domain.Transaction, error) {
	for _, t := range s.rows {
		if t.OwnerID == ownerID && t.Description == description {
			return t, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	for _, t := range txs {
		if t.Description == s.failInsertDescription && s.failInsertDescription != "" {
			return fmt.Errorf("fake store: insert refused for %q", t.Description)
		}
	}
	s.rows = append(s.rows, txs...)
	s.inserts += len(txs)
	return nil
}

var _ Store = (*fakeStore)(nil)
