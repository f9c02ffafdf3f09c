package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// ExistsExact reports whether the owner already has a stored transaction
// with the same description, amount and purchase date.
func (r *TransactionRepository) ExistsExact(ctx context.Context, ownerID, description string, amount float64, dateIncurred time.Time) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND amount = @amount
		  AND date_incurred = @date_incurred
	`, r.table(transactionsTable))

	n, err := r.queryCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "amount", Value: amount},
		{Name: "date_incurred", Value: dateIncurred.Format(dateFormat)},
	})
	if err != nil {
		return false, fmt.Errorf("ExistsExact: %w", err)
	}
	return n > 0, nil
}

// ExistsSimilar reports whether the owner has a stored transaction with the
// same description and amount, on any date. A hit usually means a recurring
// or installment charge showing up on a re-uploaded statement.
func (r *TransactionRepository) ExistsSimilar(ctx context.Context, ownerID, description string, amount float64) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND amount = @amount
	`, r.table(transactionsTable))

	n, err := r.queryCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "amount", Value: amount},
	})
	if err != nil {
		return false, fmt.Errorf("ExistsSimilar: %w", err)
	}
	return n > 0, nil
}

// InstallmentSlotExists reports whether an installment slot is already
// materialized: same owner, description, amount and slot position.
func (r *TransactionRepository) InstallmentSlotExists(ctx context.Context, ownerID, description string, amount float64, current, total int) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND amount = @amount
		  AND installment_current = @current
		  AND installment_total = @total
	`, r.table(transactionsTable))

	n, err := r.queryCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "amount", Value: amount},
		{Name: "current", Value: current},
		{Name: "total", Value: total},
	})
	if err != nil {
		return false, fmt.Errorf("InstallmentSlotExists: %w", err)
	}
	return n > 0, nil
}

// ForecastSlotExists reports whether a forecast row already occupies the
// given installment slot for the description.
func (r *TransactionRepository) ForecastSlotExists(ctx context.Context, ownerID, description string, current, total int) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND installment_current = @current
		  AND installment_total = @total
		  AND is_forecast = TRUE
	`, r.table(transactionsTable))

	n, err := r.queryCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "current", Value: current},
		{Name: "total", Value: total},
	})
	if err != nil {
		return false, fmt.Errorf("ForecastSlotExists: %w", err)
	}
	return n > 0, nil
}

// ForecastExistsOnOrAfter reports whether the owner already has a forecast
// for the description dated at or after the given day.
func (r *TransactionRepository) ForecastExistsOnOrAfter(ctx context.Context, ownerID, description string, from time.Time) (bool, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND date_incurred >= @from_date
		  AND is_forecast = TRUE
	`, r.table(transactionsTable))

	n, err := r.queryCount(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "from_date", Value: from.Format(dateFormat)},
	})
	if err != nil {
		return false, fmt.Errorf("ForecastExistsOnOrAfter: %w", err)
	}
	return n > 0, nil
}
