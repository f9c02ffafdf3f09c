package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/ddaros/financas/internal/domain"
	"github.com/ddaros/financas/internal/logger"
)

const batchSize = 100

// TransactionSource is the read surface the sync pulls from;
// *bigquery.TransactionRepository satisfies it.
type TransactionSource interface {
	QueryByDateRange(ctx context.Context, ownerID string, start, end time.Time) ([]*domain.Transaction, error)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Created int
	Skipped int
	Deleted int
}

// SyncTransactions mirrors the owner's transactions in [start, end] into
// the Notion database. Pages are deduplicated on the Transaction ID
// property; stale pages whose transaction no longer exists are archived.
// With dryRun set, the run only logs what it would do.
func SyncTransactions(ctx context.Context, source TransactionSource, notion NotionService, databaseID, ownerID string, start, end time.Time, dryRun bool) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Time("start_date", start).
		Time("end_date", end).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := source.QueryByDateRange(ctx, ownerID, start, end)
	if err != nil {
		return res, fmt.Errorf("notionsync: querying transactions: %w", err)
	}

	validIDs := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		validIDs[tx.ID] = true
	}

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return res, fmt.Errorf("notionsync: querying Notion pages: %w", err)
	}

	existingIDs := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := extractTransactionID(page); id != "" {
			existingIDs[id] = true
		}
	}

	for _, page := range pages {
		id := extractTransactionID(page)
		if id != "" && validIDs[id] {
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", id).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			res.Deleted++
			continue
		}

		if err := notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		res.Deleted++
	}

	for i := 0; i < len(transactions); i += batchSize {
		endIdx := i + batchSize
		if endIdx > len(transactions) {
			endIdx = len(transactions)
		}

		for _, tx := range transactions[i:endIdx] {
			if existingIDs[tx.ID] {
				res.Skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("transaction_id", tx.ID).
					Str("description", tx.Description).
					Msg("[DRY RUN] Would create Notion page")
				res.Created++
				continue
			}

			if _, err := notion.CreatePage(ctx, databaseID, TransactionToNotionProperties(tx)); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to create Notion page")
				continue
			}
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Msg("Transaction sync finished")

	return res, nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    100,
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}

		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
