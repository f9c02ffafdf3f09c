package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

type ExtractionRunRow struct {
	RunID      string `bigquery:"run_id"`      // REQUIRED
	DocumentID string `bigquery:"document_id"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	ModelName    string `bigquery:"model_name"`    // NULLABLE
	Status       string `bigquery:"status"`        // NULLABLE
	ErrorMessage string `bigquery:"error_message"` // NULLABLE
}

type ModelOutputRow struct {
	OutputID   string `bigquery:"output_id"`   // REQUIRED
	RunID      string `bigquery:"run_id"`      // REQUIRED
	DocumentID string `bigquery:"document_id"` // REQUIRED

	ModelName string              `bigquery:"model_name"` // REQUIRED
	RawJSON   bigquery.NullString `bigquery:"raw_json"`   // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
