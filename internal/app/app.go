// Package app assembles the storage backend, statement parser, rule store
// and importer that the binaries share.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/importer"
	infraBQ "github.com/dvloznov/spendwise/internal/infra/bigquery"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/repository/memory"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/dvloznov/spendwise/internal/statement"
	"github.com/rs/zerolog"
)

// localBucket names the in-process archive used when no GCS bucket is set.
const localBucket = "spendwise-local"

// App holds the wired components.
type App struct {
	Config config.Config
	Log    zerolog.Logger

	Transactions  repository.TransactionRepository
	Budgets       repository.BudgetRepository
	Investments   repository.InvestmentRepository
	Subscriptions repository.SubscriptionRepository
	Rules         rules.Store

	Categorizer *categorizer.Categorizer
	Parser      *statement.Parser
	Archive     archive.Archive
	Importer    *importer.Importer

	closers []func() error
}

// New builds an App for cfg. The caller must Close it.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openArchive(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var parserOpts []statement.Option
	if len(cfg.PDFLineFormats) > 0 {
		strategies, err := statement.StrategiesByName(cfg.PDFLineFormats...)
		if err != nil {
			a.Close()
			return nil, err
		}
		parserOpts = append(parserOpts, statement.WithStrategies(strategies...))
	}
	if cfg.PDFExtractor == config.ExtractorGemini {
		extractor, err := statement.NewGeminiExtractor(ctx, cfg.GeminiModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		parserOpts = append(parserOpts, statement.WithExtractor(extractor))
	}
	a.Parser = statement.NewParser(parserOpts...)
	log.Debug().Strs("line_formats", a.Parser.Strategies()).Str("extractor", cfg.PDFExtractor).Msg("Statement parser ready")

	if cfg.SeedDefaultRules {
		added, err := rules.Seed(ctx, a.Rules, rules.Defaults())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seeding default rules: %w", err)
		}
		if added > 0 {
			log.Info().Int("added", added).Msg("Seeded default category rules")
		}
	}

	a.Categorizer = categorizer.New(a.Rules)
	a.Importer = importer.New(importer.Config{
		Parser:      a.Parser,
		Categorizer: a.Categorizer,
		Repo:        a.Transactions,
		Archive:     a.Archive,
		Workers:     cfg.ImportWorkers,
	})
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch a.Config.StorageBackend {
	case config.BackendBigQuery:
		db, err := infraBQ.Open(ctx, a.Config.GCPProject, a.Config.BigQueryDataset)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		a.Transactions = infraBQ.NewTransactionRepository(db)
		a.Budgets = infraBQ.NewBudgetRepository(db)
		a.Investments = infraBQ.NewInvestmentRepository(db)
		a.Subscriptions = infraBQ.NewSubscriptionRepository(db)
		a.Rules = infraBQ.NewRuleRepository(db)
		a.Log.Info().
			Str("project", a.Config.GCPProject).
			Str("dataset", a.Config.BigQueryDataset).
			Msg("Using BigQuery storage")
	default:
		a.Transactions = memory.NewTransactionRepository()
		a.Budgets = memory.NewBudgetRepository()
		a.Investments = memory.NewInvestmentRepository()
		a.Subscriptions = memory.NewSubscriptionRepository()
		a.Rules = rules.NewMemoryStore()
		a.Log.Warn().Msg("Using in-memory storage, data is lost on exit")
	}
	return nil
}

func (a *App) openArchive(ctx context.Context) error {
	if a.Config.GCSBucket == "" {
		a.Archive = archive.NewMemoryArchive(localBucket)
		return nil
	}
	gcs, err := archive.NewGCSArchive(ctx, a.Config.GCSBucket)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, gcs.Close)
	a.Archive = gcs
	return nil
}

// ImportJobHandler returns a job handler that imports the archived file of
// an ImportStatementJob and records the imported count on the job.
func (a *App) ImportJobHandler() jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With().Str("job_id", importJob.JobID).Logger())
		res, err := a.Importer.Import(ctx, importer.Request{
			UserID:     importJob.UserID,
			Filename:   importJob.Filename,
			MimeType:   importJob.MimeType,
			ArchiveURI: importJob.ArchiveURI,
		})
		if err != nil {
			return err
		}
		importJob.Imported = res.Imported
		return nil
	}
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
