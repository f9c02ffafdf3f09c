package domain

import (
	"time"
)

// Currency is fixed for the whole system; statements from Brazilian banks
// and cards are the only supported input.
const Currency = "BRL"

// Behavior classes a transaction can be tagged with. The zero value means
// the transaction has not been classified yet.
const (
	BehaviorEssential    = "Essencial"
	BehaviorSuperfluous  = "Supérfluo"
	BehaviorLeisure      = "Lazer"
	BehaviorInvestment   = "Investimento"
	BehaviorUnclassified = "Não classificado"
)

// CategoryOther is the fallback bucket for transactions without a category.
const CategoryOther = "Outros"

// Source tags recorded in SourceFile, identifying which path created a row.
const (
	SourceUpload               = "upload"
	SourceInstallmentExpansion = "installment_expansion"
	SourceForecastInstallment  = "forecast_generated"
	SourceForecastRecurring    = "forecast_recurring"
)

// Transaction is the sole domain entity: one charge on a statement, either
// realized (extracted from an uploaded document and accepted during review)
// or synthesized by the installment expander / recurrence forecaster.
// Amount is always the positive magnitude of the charge.
type Transaction struct {
	ID      string
	OwnerID string

	DateIncurred time.Time // purchase date
	DatePayment  time.Time // due date

	Description string
	Amount      float64
	Currency    string

	Category      string
	BehaviorClass string

	InstallmentCurrent int // 1-based slot; always <= InstallmentTotal
	InstallmentTotal   int // 1 means non-installment

	IsForecast      bool // projected, not yet realized
	ForecastPaid    bool // meaningful only when IsForecast
	IsVerified      bool
	IsAutoGenerated bool

	SourceFile    string
	PaymentMethod string
	Entity        string

	BankName   string
	CardName   string
	CardHolder string

	DocumentID string // uploaded statement that produced this row, if any
}

// IsInstallment reports whether the transaction belongs to an installment
// purchase split across months.
func (t *Transaction) IsInstallment() bool {
	return t.InstallmentTotal > 1
}

// CategoryOrFallback returns the category, or the shared fallback bucket
// when the transaction was stored without one.
func (t *Transaction) CategoryOrFallback() string {
	if t.Category == "" {
		return CategoryOther
	}
	return t.Category
}

// BehaviorOrFallback returns the behavior class, or the unclassified bucket.
func (t *Transaction) BehaviorOrFallback() string {
	if t.BehaviorClass == "" {
		return BehaviorUnclassified
	}
	return t.BehaviorClass
}
