package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/spendwise/internal/app"
	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/importer"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/dvloznov/spendwise/internal/jobs/inmemory"
	"github.com/dvloznov/spendwise/internal/logger"
)

// The worker imports a batch of statements through the job queue. Local
// paths are archived first; gs:// arguments are imported from the archive.
func main() {
	userID := flag.String("user", "", "User the transactions belong to (defaults to DEFAULT_USER_ID)")
	maxRetries := flag.Int("retries", jobs.DefaultMaxRetries, "Retries per statement")
	poll := flag.Duration("poll", 500*time.Millisecond, "Job status polling interval")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if *userID == "" {
		*userID = cfg.DefaultUserID
	}
	if flag.NArg() == 0 {
		log.Fatal().Msg("Usage: worker [-user ID] FILE_OR_URI...")
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(flag.NArg(), jobStore, inmemory.WithWorkers(cfg.ImportWorkers))
	if err := jobQueue.Start(ctx, a.ImportJobHandler()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("statements", flag.NArg()).Int("workers", cfg.ImportWorkers).Msg("Starting batch import")

	var ids []string
	for _, arg := range flag.Args() {
		job, err := newJob(ctx, a.Archive, *userID, arg)
		if err != nil {
			log.Error().Err(err).Str("statement", arg).Msg("Skipping statement")
			continue
		}
		job.MaxRetries = *maxRetries
		if err := jobQueue.PublishImportStatement(ctx, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to enqueue statement")
		}
		ids = append(ids, job.JobID)
	}

	results := waitForJobs(ctx, jobStore, ids, *poll)

	// Stop the queue and wait for in-flight jobs
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	failed := 0
	for _, job := range results {
		switch job.Status {
		case jobs.JobStatusCompleted:
			fmt.Printf("  [OK]   %-40s imported %d\n", job.Filename, job.Imported)
		default:
			failed++
			fmt.Printf("  [FAIL] %-40s %s %s\n", job.Filename, job.Status, job.Error)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func newJob(ctx context.Context, arch archive.Archive, userID, arg string) (*jobs.ImportStatementJob, error) {
	if strings.HasPrefix(arg, archive.Scheme) {
		filename := archive.FilenameFromURI(arg)
		return &jobs.ImportStatementJob{
			UserID:     userID,
			ArchiveURI: arg,
			Filename:   filename,
			MimeType:   importer.ResolveMimeType(filename, ""),
		}, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	filename := filepath.Base(arg)
	mimeType := importer.ResolveMimeType(filename, "")
	uri, err := arch.Put(ctx, filename, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", filename, err)
	}
	return &jobs.ImportStatementJob{
		UserID:     userID,
		ArchiveURI: uri,
		Filename:   filename,
		MimeType:   mimeType,
	}, nil
}

// waitForJobs polls until every job is completed or failed, or ctx ends.
func waitForJobs(ctx context.Context, store jobs.JobStore, ids []string, every time.Duration) []*jobs.ImportStatementJob {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		var done []*jobs.ImportStatementJob
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil {
				continue
			}
			if job.Status == jobs.JobStatusCompleted || job.Status == jobs.JobStatusFailed {
				done = append(done, job)
			}
		}
		if len(done) == len(ids) {
			return done
		}

		select {
		case <-ctx.Done():
			log := logger.FromContext(ctx)
			log.Warn().Int("finished", len(done)).Int("total", len(ids)).Msg("Interrupted before all imports finished")
			return done
		case <-ticker.C:
		}
	}
}
