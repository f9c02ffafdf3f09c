package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// DocumentRepository stores uploaded statement documents and their
// extraction bookkeeping. Like TransactionRepository it holds a shared
// client.
type DocumentRepository struct {
	client *bigquery.Client
}

// NewDocumentRepository creates a repository with a shared BigQuery client.
func NewDocumentRepository(ctx context.Context) (*DocumentRepository, error) {
	client, err := bigquery.NewClient(ctx, ProjectID())
	if err != nil {
		return nil, fmt.Errorf("NewDocumentRepository: creating client: %w", err)
	}
	return &DocumentRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *DocumentRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertDocument records a newly uploaded statement file.
func (r *DocumentRepository) InsertDocument(ctx context.Context, row *DocumentRow) error {
	if row.UploadTS.IsZero() {
		row.UploadTS = time.Now()
	}
	if row.ParsingStatus == "" {
		row.ParsingStatus = DocStatusUploaded
	}

	table := r.client.DatasetInProject(ProjectID(), DatasetID()).Table(documentsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertDocument: inserting row: %w", err)
	}
	return nil
}

// GetDocument returns one of the owner's documents, or nil when it does not
// exist.
func (r *DocumentRepository) GetDocument(ctx context.Context, ownerID, documentID string) (*DocumentRow, error) {
	sql := fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE owner_id = @owner_id
		  AND document_id = @document_id
		LIMIT 1
	`, tableRef(documentsTable))

	q := r.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
		{Name: "document_id", Value: documentID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetDocument: query read: %w", err)
	}

	var row DocumentRow
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return nil, nil
		}
		return nil, fmt.Errorf("GetDocument: iter next: %w", err)
	}
	return &row, nil
}

// ListDocumentsByOwner returns the owner's documents, newest upload first.
func (r *DocumentRepository) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]*DocumentRow, error) {
	sql := fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE owner_id = @owner_id
		ORDER BY upload_ts DESC
	`, tableRef(documentsTable))

	q := r.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: ownerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDocumentsByOwner: query read: %w", err)
	}

	var rows []*DocumentRow
	for {
		var row DocumentRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListDocumentsByOwner: iter next: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// SetDocumentStatus updates a document's parsing status. Terminal statuses
// also stamp processed_ts.
func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, documentID, status string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET parsing_status = @status,
		    processed_ts = IF(@status IN ('PARSED', 'FAILED'), CURRENT_TIMESTAMP(), processed_ts)
		WHERE document_id = @document_id
	`, tableRef(documentsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "document_id", Value: documentID},
	})
	if err != nil {
		return fmt.Errorf("SetDocumentStatus: %w", err)
	}
	return nil
}

// SetDocumentHeader stores the statement header fields the model extracted.
func (r *DocumentRepository) SetDocumentHeader(ctx context.Context, documentID, bankName, cardNumber, cardHolder string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET bank_name = @bank_name,
		    card_number = @card_number,
		    card_holder = @card_holder
		WHERE document_id = @document_id
	`, tableRef(documentsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "bank_name", Value: nullString(bankName)},
		{Name: "card_number", Value: nullString(cardNumber)},
		{Name: "card_holder", Value: nullString(cardHolder)},
		{Name: "document_id", Value: documentID},
	})
	if err != nil {
		return fmt.Errorf("SetDocumentHeader: %w", err)
	}
	return nil
}
