// Package notionsync exports transactions and budget status to Notion
// databases.
package notionsync

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/jomei/notionapi"
)

// ExportResult counts what an export did or, for a dry run, would do.
type ExportResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// ExportTransactions pushes the user's transactions dated from..to into a
// Notion database. Pages are keyed by the "Transaction ID" property:
// transactions that already have a page are skipped, and pages in the range
// whose ID no longer exists are archived. Pages without an ID are archived
// too. Single page failures are logged and counted, not returned.
func ExportTransactions(ctx context.Context, repo TransactionSource, client NotionService, dbID, userID string, from, to civil.Date, dryRun bool) (*ExportResult, error) {
	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Str("from", from.String()).
		Str("to", to.String()).
		Bool("dry_run", dryRun).
		Logger()

	txns, err := repo.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ExportTransactions: list transactions: %w", err)
	}
	current := make(map[string]bool, len(txns))
	for _, tx := range txns {
		current[tx.ID] = true
	}

	pages, err := queryAllPages(ctx, client, dbID)
	if err != nil {
		return nil, fmt.Errorf("ExportTransactions: %w", err)
	}
	log.Info().Int("transactions", len(txns)).Int("pages", len(pages)).Msg("Starting Notion export")

	res := &ExportResult{}
	exported := make(map[string]bool, len(pages))
	for _, page := range pages {
		id := richTextValue(page, PropTransactionID)
		if id != "" && current[id] {
			exported[id] = true
			continue
		}
		if id != "" {
			if d, ok := dateValue(page, PropDate); ok && !dates.InRange(d, from, to) {
				continue
			}
		}
		if dryRun {
			res.Archived++
			continue
		}
		if err := client.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			res.Failed++
			continue
		}
		res.Archived++
	}

	for _, tx := range txns {
		if exported[tx.ID] {
			res.Skipped++
			continue
		}
		if dryRun {
			res.Created++
			continue
		}
		if _, err := client.CreatePage(ctx, dbID, TransactionProperties(tx)); err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Notion export completed")
	return res, nil
}

// ExportBudget writes one page per category line of report. A page whose
// "Budget Key" matches is updated in place.
func ExportBudget(ctx context.Context, client NotionService, dbID string, report metrics.BudgetReport, dryRun bool) (*ExportResult, error) {
	log := logger.FromContext(ctx).With().Str("month", report.Month).Bool("dry_run", dryRun).Logger()

	pages, err := queryAllPages(ctx, client, dbID)
	if err != nil {
		return nil, fmt.Errorf("ExportBudget: %w", err)
	}
	byKey := make(map[string]string, len(pages))
	for _, page := range pages {
		if key := richTextValue(page, PropBudgetKey); key != "" {
			byKey[key] = string(page.ID)
		}
	}

	res := &ExportResult{}
	for _, line := range report.Categories {
		props := BudgetLineProperties(report.Month, line)
		pageID, exists := byKey[BudgetKey(report.Month, line.Category)]

		switch {
		case dryRun && exists:
			res.Updated++
		case dryRun:
			res.Created++
		case exists:
			if _, err := client.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("category", line.Category).Msg("Failed to update budget page")
				res.Failed++
				continue
			}
			res.Updated++
		default:
			if _, err := client.CreatePage(ctx, dbID, props); err != nil {
				log.Warn().Err(err).Str("category", line.Category).Msg("Failed to create budget page")
				res.Failed++
				continue
			}
			res.Created++
		}
	}

	log.Info().Int("created", res.Created).Int("updated", res.Updated).Int("failed", res.Failed).Msg("Budget export completed")
	return res, nil
}

func queryAllPages(ctx context.Context, client NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		resp, err := client.QueryPages(ctx, databaseID, cursor)
		if err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
