package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/app"
	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/notionsync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Parse CLI flags
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required with -notion-db-id)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required with -notion-db-id)")
	notionToken := flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database receiving transactions")
	budgetDBID := flag.String("budget-db-id", "", "Notion database receiving budget lines")
	budgetMonth := flag.String("budget-month", "", "Month (YYYY-MM) whose budget status is exported")
	userID := flag.String("user", cfg.DefaultUserID, "User whose data is exported")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	timeout := flag.Duration("timeout", notionsync.DefaultTimeout, "Timeout of each Notion API call")
	flag.Parse()

	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" && *budgetDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id or --budget-db-id is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	notionClient := notionsync.NewNotionClient(*notionToken, *timeout)

	if *notionDBID != "" {
		from, to := parseRange(*startDateStr, *endDateStr)
		log.Info().
			Str("start_date", from.String()).
			Str("end_date", to.String()).
			Bool("dry_run", *dryRun).
			Msg("Exporting transactions to Notion")

		res, err := notionsync.ExportTransactions(ctx, a.Transactions, notionClient, *notionDBID, *userID, from, to, *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("Transaction export failed")
		}
		printResult("Transactions", res)
	}

	if *budgetDBID != "" {
		if *budgetMonth == "" {
			log.Fatal().Msg("Error: --budget-month is required with --budget-db-id")
		}
		budget, err := a.Budgets.Get(ctx, *userID, *budgetMonth)
		if err != nil {
			log.Fatal().Err(err).Str("month", *budgetMonth).Msg("Failed to load budget")
		}
		from, to, _ := dates.MonthBounds(*budgetMonth)
		txns, err := a.Transactions.ListRange(ctx, *userID, from, to)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load transactions")
		}

		res, err := notionsync.ExportBudget(ctx, notionClient, *budgetDBID, metrics.BudgetStatus(*budget, txns), *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("Budget export failed")
		}
		printResult("Budget", res)
	}

	fmt.Println("Sync completed successfully.")
}

func parseRange(startStr, endStr string) (civil.Date, civil.Date) {
	log := logger.New()
	if startStr == "" || endStr == "" {
		log.Fatal().Msg("Error: --start-date and --end-date are required")
	}
	start, err := civil.ParseDate(startStr)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", startStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}
	end, err := civil.ParseDate(endStr)
	if err != nil {
		log.Fatal().Err(err).Str("end_date", endStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		log.Fatal().Str("start_date", startStr).Str("end_date", endStr).Msg("Error: end-date must be after start-date")
	}
	return start, end
}

func printResult(what string, res *notionsync.ExportResult) {
	fmt.Printf("%s: created %d, updated %d, skipped %d, archived %d, failed %d\n",
		what, res.Created, res.Updated, res.Skipped, res.Archived, res.Failed)
}
