package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// TransactionRepository is the concrete owner-scoped store backed by
// BigQuery. It holds a shared client to avoid creating a new connection for
// each operation.
type TransactionRepository struct {
	client *bigquery.Client
}

// NewTransactionRepository creates a repository with a shared BigQuery client.
func NewTransactionRepository(ctx context.Context) (*TransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, ProjectID())
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &TransactionRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *TransactionRepository) table(name string) string {
	return tableRef(name)
}

func (r *TransactionRepository) runDML(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	return runDML(ctx, r.client, sql, params)
}

func (r *TransactionRepository) queryCount(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	return queryCount(ctx, r.client, sql, params)
}

func tableRef(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", ProjectID(), DatasetID(), name)
}

// runDML runs a parameterized statement and waits for it to finish.
func runDML(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

// queryCount runs a SELECT COUNT(*) query and returns the single value.
func queryCount(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("iter next: %w", err)
	}
	return row.N, nil
}
