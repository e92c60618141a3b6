package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/app"
	"github.com/dvloznov/spendwise/internal/auth"
	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/importer"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/metrics"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})

	switch os.Args[1] {
	case "import":
		runImport(cfg, log)
	case "upload":
		runUpload(cfg, log)
	case "categorize":
		runCategorize(cfg, log)
	case "rules":
		runRules(cfg, log)
	case "summary":
		runSummary(cfg, log)
	case "budget":
		runBudget(cfg, log)
	case "token":
		runToken(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Spendwise CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import      Parse, categorize and store a PDF or CSV statement")
	fmt.Println("  upload      Archive a statement file and print its URI")
	fmt.Println("  categorize  Show the category the rules assign to a description")
	fmt.Println("  rules       List the category rules or seed them from YAML")
	fmt.Println("  summary     Print the monthly summary of a user")
	fmt.Println("  budget      Print the budget status of a user for a month")
	fmt.Println("  token       Issue a bearer token for a user")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println("Settings come from the environment or a .env file (STORAGE_BACKEND, GCP_PROJECT, GCS_BUCKET, ...).")
}

func openApp(ctx context.Context, cfg config.Config, log zerolog.Logger) *app.App {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return a
}

func runImport(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a local PDF or CSV statement")
	uri := fs.String("uri", "", "Archive URI (gs://bucket/object) of a statement to re-import")
	userID := fs.String("user", cfg.DefaultUserID, "User the transactions belong to")
	mimeType := fs.String("type", "", "MIME type of the file (detected from the extension when empty)")
	dryRun := fs.Bool("dry-run", false, "Parse and categorize without storing")
	fs.Parse(os.Args[2:])

	if (*filePath == "") == (*uri == "") {
		log.Fatal().Msg("Usage: cli import (-file PATH | -uri gs://BUCKET/OBJECT) [-user ID] [-dry-run]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := openApp(ctx, cfg, log)
	defer a.Close()

	req := importer.Request{
		UserID:     *userID,
		MimeType:   *mimeType,
		ArchiveURI: *uri,
		DryRun:     *dryRun,
	}
	if *filePath != "" {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statement")
		}
		req.Filename = filepath.Base(*filePath)
		req.Data = data
	}

	res, err := a.Importer.Import(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Parsed:        %d\n", res.Parsed)
	fmt.Printf("Imported:      %d\n", res.Imported)
	fmt.Printf("Skipped:       %d\n", res.Skipped)
	fmt.Printf("Uncategorized: %d\n", res.Uncategorized)
	if res.ArchiveURI != "" {
		fmt.Printf("Archived at:   %s\n", res.ArchiveURI)
	}
	if *dryRun {
		for _, tx := range res.Transactions {
			fmt.Printf("  %s  %-8s %12s  %-20s %s\n", tx.Date, tx.Direction, tx.Amount.StringFixed(2), tx.Category, tx.Description)
		}
	}
}

func runUpload(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to a local statement file")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET must be set to upload")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read file")
	}
	name := filepath.Base(*filePath)
	uri, err := a.Archive.Put(ctx, name, importer.ResolveMimeType(name, ""), data)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runCategorize(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	description := fs.String("description", "", "Transaction description to categorize")
	fs.Parse(os.Args[2:])

	descriptions := fs.Args()
	if *description != "" {
		descriptions = append([]string{*description}, descriptions...)
	}
	if len(descriptions) == 0 {
		log.Fatal().Msg("Usage: cli categorize -description TEXT [MORE...]")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	for _, desc := range descriptions {
		fmt.Printf("%-40s %s\n", desc, a.Categorizer.Categorize(ctx, desc))
	}
}

func runRules(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	seedFile := fs.String("file", "", "YAML rule file for 'seed' (built-in defaults when empty)")
	fs.Parse(os.Args[2:])

	action := fs.Arg(0)
	if action != "list" && action != "seed" {
		log.Fatal().Msg("Usage: cli rules [-file rules.yaml] (list | seed)")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	if action == "seed" {
		seed := rules.Defaults()
		if *seedFile != "" {
			f, err := os.Open(*seedFile)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open rule file")
			}
			seed, err = rules.LoadYAML(f)
			f.Close()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse rule file")
			}
		}
		added, err := rules.Seed(ctx, a.Rules, seed)
		if err != nil {
			log.Fatal().Err(err).Msg("Seeding failed")
		}
		fmt.Printf("Added %d of %d rules.\n", added, len(seed))
		return
	}

	list, err := a.Rules.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list rules")
	}
	fmt.Printf("%-8s %-30s %s\n", "PRIORITY", "KEYWORD", "CATEGORY")
	for _, r := range list {
		fmt.Printf("%-8d %-30s %s\n", r.Priority, r.Keyword, r.Category)
	}
}

func runSummary(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	month := fs.String("month", dates.MonthKey(time.Now()), "Month as YYYY-MM")
	userID := fs.String("user", cfg.DefaultUserID, "User to summarize")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	prev, err := dates.PreviousMonth(*month)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid month")
	}
	prevFrom, prevTo, _ := dates.MonthBounds(prev)
	_, to, _ := dates.MonthBounds(*month)

	txns, err := a.Transactions.ListRange(ctx, *userID, prevFrom, to)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	var previous []domain.Transaction
	for _, t := range txns {
		if dates.InRange(t.Date, prevFrom, prevTo) {
			previous = append(previous, t)
		}
	}

	s, err := metrics.MonthlySummary(*month, txns, metrics.TotalSpending(previous))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to summarize")
	}

	fmt.Printf("\n=== Summary %s ===\n", s.Month)
	fmt.Printf("Spending:       %s\n", s.TotalSpending.StringFixed(2))
	fmt.Printf("Income:         %s\n", s.TotalIncome.StringFixed(2))
	fmt.Printf("Net:            %s\n", s.NetBalance.StringFixed(2))
	fmt.Printf("Weekday/Weekend: %s / %s\n", s.WeekdaySpending.StringFixed(2), s.WeekendSpending.StringFixed(2))
	fmt.Printf("vs %s:     %s%%\n", prev, s.MonthOverMonthChange.StringFixed(2))
	fmt.Printf("Transactions:   %d\n", s.TransactionCount)
	for _, c := range s.CategorySpending {
		fmt.Printf("  %-24s %12s\n", c.Category, c.Amount.StringFixed(2))
	}

	if cfg.FiscalMonthStartDay > 1 {
		printFiscalMonth(ctx, a, *userID, cfg.FiscalMonthStartDay, log)
	}
	fmt.Println()
}

// printFiscalMonth reports spending of the fiscal month containing today.
func printFiscalMonth(ctx context.Context, a *app.App, userID string, startDay int, log zerolog.Logger) {
	from, to := dates.FiscalMonth(civil.DateOf(time.Now()), startDay)
	txns, err := a.Transactions.ListRange(ctx, userID, from, to)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load fiscal month")
		return
	}
	fmt.Printf("\nFiscal month %s to %s: spending %s across %d transactions\n",
		from, to, metrics.TotalSpending(txns).StringFixed(2), len(txns))
}

func runBudget(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	month := fs.String("month", dates.MonthKey(time.Now()), "Month as YYYY-MM")
	userID := fs.String("user", cfg.DefaultUserID, "User whose budget to check")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := openApp(ctx, cfg, log)
	defer a.Close()

	budget, err := a.Budgets.Get(ctx, *userID, *month)
	if err != nil {
		log.Fatal().Err(err).Str("month", *month).Msg("No budget")
	}
	from, to, _ := dates.MonthBounds(*month)
	txns, err := a.Transactions.ListRange(ctx, *userID, from, to)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}

	report := metrics.BudgetStatus(*budget, txns)
	fmt.Printf("\n=== Budget %s ===\n", report.Month)
	printBudgetLine("TOTAL", report.Total)
	for _, line := range report.Categories {
		printBudgetLine(line.Category, line)
	}
	fmt.Println()
}

func printBudgetLine(name string, line metrics.BudgetLine) {
	status := ""
	switch {
	case line.Exceeded:
		status = "EXCEEDED"
	case line.Warning:
		status = "warning"
	}
	fmt.Printf("%-24s %12s / %-12s %6.2f%% %s\n", name, line.Spent.StringFixed(2), line.Limit.StringFixed(2), line.PercentageUsed, status)
}

func runToken(cfg config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.String("user", cfg.DefaultUserID, "Subject of the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	fs.Parse(os.Args[2:])

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatal().Msg("JWT_SECRET must be set to issue tokens")
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid JWT secret")
	}
	tok, err := tokens.GenerateToken(*userID, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}
	fmt.Println(tok)
}
