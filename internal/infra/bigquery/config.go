package bigquery

import (
	"os"
)

const (
	transactionsTable   = "transactions"
	documentsTable      = "documents"
	extractionRunsTable = "extraction_runs"
	modelOutputsTable   = "model_outputs"

	dateFormat = "2006-01-02"
)

// ProjectID returns the GCP project holding the finance dataset.
func ProjectID() string {
	return envOr("BQ_PROJECT", "financas-tracker")
}

// DatasetID returns the BigQuery dataset all tables live in.
func DatasetID() string {
	return envOr("BQ_DATASET", "finance")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
