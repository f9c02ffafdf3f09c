package forecast

import (
	"context"
	"time"

	"github.com/ddaros/financas/internal/domain"
)

// InstallmentGroup is one (description, installment_total) group of realized
// installment rows, with the furthest slot and latest dates seen so far.
type InstallmentGroup struct {
	Description      string
	InstallmentTotal int
	MaxCurrent       int
	LatestIncurred   time.Time
	LatestPayment    time.Time
}

// RecurringGroup is one description that has repeated across realized
// transactions, together with its occurrence count, average amount and the
// date of the latest occurrence.
type RecurringGroup struct {
	Description    string
	Count          int
	AvgAmount      float64
	LatestIncurred time.Time
}

// Store is the owner-scoped persistence surface the expander and generator
// need. *bigquery.TransactionRepository satisfies it; tests use fakes.
type Store interface {
	// InstallmentSlotExists reports whether a row with the same
	// (description, amount, installment_current, installment_total)
	// already exists for the owner.
	InstallmentSlotExists(ctx context.Context, ownerID, description string, amount float64, current, total int) (bool, error)

	// ForecastSlotExists reports whether a forecast row already occupies
	// the given installment slot for the description.
	ForecastSlotExists(ctx context.Context, ownerID, description string, current, total int) (bool, error)

	// ForecastExistsOnOrAfter reports whether a forecast for the
	// description exists dated at or after the given day.
	ForecastExistsOnOrAfter(ctx context.Context, ownerID, description string, from time.Time) (bool, error)

	// InstallmentGroups groups the owner's realized rows by
	// (description, installment_total) where the total is above one.
	InstallmentGroups(ctx context.Context, ownerID string) ([]InstallmentGroup, error)

	// RecurringGroups groups the owner's realized rows by description,
	// keeping groups that repeat at least minCount times.
	RecurringGroups(ctx context.Context, ownerID string, minCount int) ([]RecurringGroup, error)

	// FirstByGroup returns any one realized transaction matching the
	// description and installment total, or nil when none exists.
	FirstByGroup(ctx context.Context, ownerID, description string, installmentTotal int) (*domain.Transaction, error)

	// FirstByDescription returns any one transaction with the given
	// description, or nil when none exists.
	FirstByDescription(ctx context.Context, ownerID, description string) (*domain.Transaction, error)

	// InsertTransactions persists new rows.
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) error
}
