package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/ddaros/financas/internal/domain"
)

// transactionColumns is the column list shared by every SELECT over the
// transactions table, in TransactionRow field order.
const transactionColumns = `
	transaction_id,
	owner_id,
	date_incurred,
	date_payment,
	description,
	amount,
	currency,
	category,
	behavior_class,
	installment_current,
	installment_total,
	is_forecast,
	forecast_paid,
	is_verified,
	is_auto_generated,
	source_file,
	payment_method,
	entity,
	bank_name,
	card_name,
	card_holder,
	document_id,
	created_ts,
	updated_ts`

// updatableFields is the allow-list for single-field updates. Requests
// naming any other column are rejected before touching the store.
var updatableFields = map[string]bool{
	"description":    true,
	"amount":         true,
	"category":       true,
	"behavior_class": true,
	"date_incurred":  true,
	"date_payment":   true,
	"entity":         true,
	"payment_method": true,
	"bank_name":      true,
	"card_name":      true,
	"card_holder":    true,
	"is_verified":    true,
}

// InsertTransactions writes a batch of transactions via the streaming
// inserter. Rows without an ID are assigned one.
func (r *TransactionRepository) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		rows = append(rows, fromDomain(t))
	}

	table := r.client.DatasetInProject(ProjectID(), DatasetID()).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListByOwner returns every transaction of one owner, newest purchase first.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY date_incurred DESC, created_ts DESC
	`, transactionColumns, r.table(transactionsTable))

	return r.queryTransactions(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	})
}

// ListForecasts returns the owner's forecast rows, earliest first, the order
// the forecasts screen presents them in.
func (r *TransactionRepository) ListForecasts(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		  AND is_forecast = TRUE
		ORDER BY date_incurred ASC
	`, transactionColumns, r.table(transactionsTable))

	return r.queryTransactions(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	})
}

// QueryByDateRange returns the owner's transactions with a purchase date in
// [start, end], both inclusive.
func (r *TransactionRepository) QueryByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		  AND date_incurred >= @start_date
		  AND date_incurred <= @end_date
		ORDER BY date_incurred, created_ts
	`, transactionColumns, r.table(transactionsTable))

	return r.queryTransactions(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "start_date", Value: start.Format(dateFormat)},
		{Name: "end_date", Value: end.Format(dateFormat)},
	})
}

// UpdateField updates one allow-listed column on one of the owner's
// transactions.
func (r *TransactionRepository) UpdateField(ctx context.Context, ownerID, transactionID, field string, value interface{}) error {
	if !updatableFields[field] {
		return fmt.Errorf("UpdateField: field %q is not updatable", field)
	}

	sql := fmt.Sprintf(`
		UPDATE %s
		SET %s = @value,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE owner_id = @owner_id
		  AND transaction_id = @transaction_id
	`, r.table(transactionsTable), field)

	err := r.runDML(ctx, sql, []bigquery.QueryParameter{
		{Name: "value", Value: value},
		{Name: "owner_id", Value: ownerID},
		{Name: "transaction_id", Value: transactionID},
	})
	if err != nil {
		return fmt.Errorf("UpdateField: %w", err)
	}
	return nil
}

// MarkForecastPaid confirms a forecast row: sets forecast_paid, marks it
// verified and overwrites the amount with the value actually charged.
func (r *TransactionRepository) MarkForecastPaid(ctx context.Context, ownerID, transactionID string, paid bool, amount float64) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET forecast_paid = @paid,
		    is_verified = TRUE,
		    amount = @amount,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE owner_id = @owner_id
		  AND transaction_id = @transaction_id
		  AND is_forecast = TRUE
	`, r.table(transactionsTable))

	err := r.runDML(ctx, sql, []bigquery.QueryParameter{
		{Name: "paid", Value: paid},
		{Name: "amount", Value: amount},
		{Name: "owner_id", Value: ownerID},
		{Name: "transaction_id", Value: transactionID},
	})
	if err != nil {
		return fmt.Errorf("MarkForecastPaid: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given transactions, scoped to the owner so one
// user can never delete another user's rows.
func (r *TransactionRepository) DeleteByIDs(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = @owner_id
		  AND transaction_id IN UNNEST(@ids)
	`, r.table(transactionsTable))

	err := r.runDML(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "ids", Value: ids},
	})
	if err != nil {
		return fmt.Errorf("DeleteByIDs: %w", err)
	}
	return nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, sql string, params []bigquery.QueryParameter) ([]*domain.Transaction, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryTransactions: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("queryTransactions: iter next: %w", err)
		}
		txs = append(txs, row.toDomain())
	}

	return txs, nil
}
