package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// Document parsing statuses, stored in documents.parsing_status.
const (
	DocStatusUploaded = "UPLOADED"
	DocStatusRunning  = "RUNNING"
	DocStatusParsed   = "PARSED"
	DocStatusFailed   = "FAILED"
)

// DocumentRow is the finance.documents table schema, one row per uploaded
// statement file.
type DocumentRow struct {
	DocumentID string `bigquery:"document_id"` // REQUIRED
	OwnerID    string `bigquery:"owner_id"`    // REQUIRED
	GCSURI     string `bigquery:"gcs_uri"`     // REQUIRED

	OriginalFilename string `bigquery:"original_filename"` // NULLABLE
	FileMimeType     string `bigquery:"file_mime_type"`    // NULLABLE

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	ParsingStatus string `bigquery:"parsing_status"` // NULLABLE

	BankName   bigquery.NullString `bigquery:"bank_name"`   // NULLABLE
	CardNumber bigquery.NullString `bigquery:"card_number"` // NULLABLE
	CardHolder bigquery.NullString `bigquery:"card_holder"` // NULLABLE
}
