package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/forecast"
)

// InstallmentGroups groups the owner's realized rows by description and
// installment total, for totals above one. Each group carries the furthest
// slot reached and the latest purchase and payment dates.
func (r *TransactionRepository) InstallmentGroups(ctx context.Context, ownerID string) ([]forecast.InstallmentGroup, error) {
	sql := fmt.Sprintf(`
		SELECT
			description,
			installment_total,
			MAX(installment_current) AS max_current,
			MAX(date_incurred) AS latest_incurred,
			MAX(date_payment) AS latest_payment
		FROM %s
		WHERE owner_id = @owner_id
		  AND is_forecast = FALSE
		  AND installment_total > 1
		GROUP BY description, installment_total
	`, r.table(transactionsTable))

	q := r.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("InstallmentGroups: query read: %w", err)
	}

	var groups []forecast.InstallmentGroup
	for {
		var row struct {
			Description      string     `bigquery:"description"`
			InstallmentTotal int64      `bigquery:"installment_total"`
			MaxCurrent       int64      `bigquery:"max_current"`
			LatestIncurred   civil.Date `bigquery:"latest_incurred"`
			LatestPayment    civil.Date `bigquery:"latest_payment"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("InstallmentGroups: iter next: %w", err)
		}
		groups = append(groups, forecast.InstallmentGroup{
			Description:      row.Description,
			InstallmentTotal: int(row.InstallmentTotal),
			MaxCurrent:       int(row.MaxCurrent),
			LatestIncurred:   dateToTime(row.LatestIncurred),
			LatestPayment:    dateToTime(row.LatestPayment),
		})
	}

	return groups, nil
}

// RecurringGroups groups the owner's realized rows by description, keeping
// descriptions seen at least minCount times.
func (r *TransactionRepository) RecurringGroups(ctx context.Context, ownerID string, minCount int) ([]forecast.RecurringGroup, error) {
	sql := fmt.Sprintf(`
		SELECT
			description,
			COUNT(*) AS occurrences,
			AVG(amount) AS avg_amount,
			MAX(date_incurred) AS latest_incurred
		FROM %s
		WHERE owner_id = @owner_id
		  AND is_forecast = FALSE
		GROUP BY description
		HAVING COUNT(*) >= @min_count
	`, r.table(transactionsTable))

	q := r.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "min_count", Value: int64(minCount)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("RecurringGroups: query read: %w", err)
	}

	var groups []forecast.RecurringGroup
	for {
		var row struct {
			Description    string     `bigquery:"description"`
			Occurrences    int64      `bigquery:"occurrences"`
			AvgAmount      float64    `bigquery:"avg_amount"`
			LatestIncurred civil.Date `bigquery:"latest_incurred"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("RecurringGroups: iter next: %w", err)
		}
		groups = append(groups, forecast.RecurringGroup{
			Description:    row.Description,
			Count:          int(row.Occurrences),
			AvgAmount:      row.AvgAmount,
			LatestIncurred: dateToTime(row.LatestIncurred),
		})
	}

	return groups, nil
}

// FirstByGroup returns one realized transaction from an installment group,
// used as the metadata anchor when filling in the group's missing slots.
// Returns nil when the group has no rows.
func (r *TransactionRepository) FirstByGroup(ctx context.Context, ownerID, description string, installmentTotal int) (*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		  AND installment_total = @installment_total
		  AND is_forecast = FALSE
		ORDER BY installment_current DESC
		LIMIT 1
	`, transactionColumns, r.table(transactionsTable))

	txs, err := r.queryTransactions(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
		{Name: "installment_total", Value: int64(installmentTotal)},
	})
	if err != nil {
		return nil, fmt.Errorf("FirstByGroup: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return txs[0], nil
}

// FirstByDescription returns the owner's most recent transaction with the
// given description, or nil when none exists.
func (r *TransactionRepository) FirstByDescription(ctx context.Context, ownerID, description string) (*domain.Transaction, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = @owner_id
		  AND description = @description
		ORDER BY date_incurred DESC
		LIMIT 1
	`, transactionColumns, r.table(transactionsTable))

	txs, err := r.queryTransactions(ctx, sql, []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "description", Value: description},
	})
	if err != nil {
		return nil, fmt.Errorf("FirstByDescription: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return txs[0], nil
}
