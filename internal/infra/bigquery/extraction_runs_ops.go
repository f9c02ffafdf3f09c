package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/ddaros/financas/internal/logger"
)

// StartExtractionRun inserts a RUNNING row into finance.extraction_runs and
// returns the generated run id.
func (r *DocumentRepository) StartExtractionRun(ctx context.Context, documentID, modelName string) (string, error) {
	runID := uuid.NewString()

	sql := fmt.Sprintf(`
		INSERT %s (
			run_id,
			document_id,
			started_ts,
			model_name,
			status
		)
		VALUES (
			@run_id,
			@document_id,
			@started_ts,
			@model_name,
			@status
		)
	`, tableRef(extractionRunsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "document_id", Value: documentID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "model_name", Value: modelName},
		{Name: "status", Value: "RUNNING"},
	})
	if err != nil {
		return "", fmt.Errorf("StartExtractionRun: %w", err)
	}

	return runID, nil
}

// MarkExtractionRunFailed sets status=FAILED, finished_ts and the error
// message. Failures here are logged, not returned; the run row is
// bookkeeping and must not mask the extraction error itself.
func (r *DocumentRepository) MarkExtractionRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, tableRef(extractionRunsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkExtractionRunFailed: update failed")
	}
}

// MarkExtractionRunSucceeded sets status=SUCCESS and finished_ts.
func (r *DocumentRepository) MarkExtractionRunSucceeded(ctx context.Context, runID string) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = ""
		WHERE run_id = @run_id
	`, tableRef(extractionRunsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		return fmt.Errorf("MarkExtractionRunSucceeded: %w", err)
	}
	return nil
}

// InsertModelOutput stores the raw model response for a run. Uses DML
// INSERT to avoid streaming buffer issues on rows we may want to inspect
// right away.
func (r *DocumentRepository) InsertModelOutput(ctx context.Context, runID, documentID, modelName, rawJSON string) error {
	sql := fmt.Sprintf(`
		INSERT %s (
			output_id,
			run_id,
			document_id,
			model_name,
			raw_json,
			created_ts
		)
		VALUES (
			@output_id,
			@run_id,
			@document_id,
			@model_name,
			@raw_json,
			@created_ts
		)
	`, tableRef(modelOutputsTable))

	err := runDML(ctx, r.client, sql, []bigquery.QueryParameter{
		{Name: "output_id", Value: uuid.NewString()},
		{Name: "run_id", Value: runID},
		{Name: "document_id", Value: documentID},
		{Name: "model_name", Value: modelName},
		{Name: "raw_json", Value: nullString(rawJSON)},
		{Name: "created_ts", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("InsertModelOutput: %w", err)
	}
	return nil
}
