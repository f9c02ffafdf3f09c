package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/ddaros/financas/internal/domain"
)

// TransactionRow is the finance.transactions table schema. It is a storage
// struct, not a domain struct; toDomain/fromDomain map between the two.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	OwnerID       string `bigquery:"owner_id"`       // REQUIRED

	DateIncurred civil.Date `bigquery:"date_incurred"` // REQUIRED
	DatePayment  civil.Date `bigquery:"date_payment"`  // REQUIRED

	Description string  `bigquery:"description"` // REQUIRED
	Amount      float64 `bigquery:"amount"`      // REQUIRED, positive magnitude
	Currency    string  `bigquery:"currency"`    // REQUIRED, always BRL

	Category      bigquery.NullString `bigquery:"category"`
	BehaviorClass bigquery.NullString `bigquery:"behavior_class"`

	InstallmentCurrent int64 `bigquery:"installment_current"` // >= 1
	InstallmentTotal   int64 `bigquery:"installment_total"`   // >= 1

	IsForecast      bool `bigquery:"is_forecast"`
	ForecastPaid    bool `bigquery:"forecast_paid"`
	IsVerified      bool `bigquery:"is_verified"`
	IsAutoGenerated bool `bigquery:"is_auto_generated"`

	SourceFile    bigquery.NullString `bigquery:"source_file"`
	PaymentMethod bigquery.NullString `bigquery:"payment_method"`
	Entity        bigquery.NullString `bigquery:"entity"`

	BankName   bigquery.NullString `bigquery:"bank_name"`
	CardName   bigquery.NullString `bigquery:"card_name"`
	CardHolder bigquery.NullString `bigquery:"card_holder"`

	DocumentID bigquery.NullString `bigquery:"document_id"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func fromDomain(t *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:      t.ID,
		OwnerID:            t.OwnerID,
		DateIncurred:       civil.DateOf(t.DateIncurred),
		DatePayment:        civil.DateOf(t.DatePayment),
		Description:        t.Description,
		Amount:             t.Amount,
		Currency:           t.Currency,
		Category:           nullString(t.Category),
		BehaviorClass:      nullString(t.BehaviorClass),
		InstallmentCurrent: int64(t.InstallmentCurrent),
		InstallmentTotal:   int64(t.InstallmentTotal),
		IsForecast:         t.IsForecast,
		ForecastPaid:       t.ForecastPaid,
		IsVerified:         t.IsVerified,
		IsAutoGenerated:    t.IsAutoGenerated,
		SourceFile:         nullString(t.SourceFile),
		PaymentMethod:      nullString(t.PaymentMethod),
		Entity:             nullString(t.Entity),
		BankName:           nullString(t.BankName),
		CardName:           nullString(t.CardName),
		CardHolder:         nullString(t.CardHolder),
		DocumentID:         nullString(t.DocumentID),
		CreatedTS:          time.Now(),
	}
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:                 r.TransactionID,
		OwnerID:            r.OwnerID,
		DateIncurred:       dateToTime(r.DateIncurred),
		DatePayment:        dateToTime(r.DatePayment),
		Description:        r.Description,
		Amount:             r.Amount,
		Currency:           r.Currency,
		Category:           stringOrEmpty(r.Category),
		BehaviorClass:      stringOrEmpty(r.BehaviorClass),
		InstallmentCurrent: int(r.InstallmentCurrent),
		InstallmentTotal:   int(r.InstallmentTotal),
		IsForecast:         r.IsForecast,
		ForecastPaid:       r.ForecastPaid,
		IsVerified:         r.IsVerified,
		IsAutoGenerated:    r.IsAutoGenerated,
		SourceFile:         stringOrEmpty(r.SourceFile),
		PaymentMethod:      stringOrEmpty(r.PaymentMethod),
		Entity:             stringOrEmpty(r.Entity),
		BankName:           stringOrEmpty(r.BankName),
		CardName:           stringOrEmpty(r.CardName),
		CardHolder:         stringOrEmpty(r.CardHolder),
		DocumentID:         stringOrEmpty(r.DocumentID),
	}
}

func nullString(s string) bigquery.NullString {
	if s == "" {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: s, Valid: true}
}

func stringOrEmpty(s bigquery.NullString) string {
	if s.Valid {
		return s.StringVal
	}
	return ""
}

func dateToTime(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
