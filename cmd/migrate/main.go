package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	infraBQ "github.com/dvloznov/spendwise/internal/infra/bigquery"
	"github.com/dvloznov/spendwise/internal/logger"
)

func main() {
	projectID := flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID (or set GCP_PROJECT)")
	datasetID := flag.String("dataset", envOr("BIGQUERY_DATASET", "spendwise"), "BigQuery dataset ID")
	appliedBy := flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir := flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
	status := flag.Bool("status", false, "List applied and pending migrations without running them")
	flag.Parse()

	log := logger.New()

	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	migrations, err := infraBQ.ReadMigrations(os.DirFS(*migrationsDir), *projectID, *datasetID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Str("dir", *migrationsDir).Msg("Found migration files")

	db, err := infraBQ.Open(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to BigQuery")
	}
	defer db.Close()

	migrator := infraBQ.NewMigrator(db, *appliedBy, log)

	if *status {
		printStatus(ctx, migrator, migrations)
		return
	}

	applied, err := migrator.Up(ctx, migrations)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	if applied == 0 {
		fmt.Println("No new migrations to apply. Database is up to date.")
		return
	}
	fmt.Printf("Successfully applied %d migration(s)\n", applied)
}

func printStatus(ctx context.Context, m *infraBQ.Migrator, migrations []infraBQ.Migration) {
	log := logger.FromContext(ctx)

	applied, err := m.Applied(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read applied migrations")
	}
	pending, err := infraBQ.Pending(migrations, applied)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration history does not match files")
	}

	for _, a := range applied {
		fmt.Printf("  [DONE] %04d_%s  %s\n", a.Version, a.Name, a.AppliedAt.Format(time.RFC3339))
	}
	for _, p := range pending {
		fmt.Printf("  [PEND] %04d_%s\n", p.Version, p.Name)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
