package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/statement"
)

// Importer runs the standard import pipeline.
type Importer struct {
	pipeline *Pipeline
}

// Config wires the collaborators of an Importer. Archive may be nil.
type Config struct {
	Parser      *statement.Parser
	Categorizer *categorizer.Categorizer
	Repo        repository.TransactionRepository
	Archive     archive.Archive
	Workers     int
}

// New creates an Importer running fetch, archive, parse, categorize and
// persist.
func New(cfg Config) *Importer {
	parser := cfg.Parser
	if parser == nil {
		parser = statement.NewParser()
	}
	return &Importer{
		pipeline: NewPipeline(
			&FetchStep{Archive: cfg.Archive},
			&ArchiveStep{Archive: cfg.Archive},
			&ParseStep{Parser: parser},
			&CategorizeStep{Categorizer: cfg.Categorizer, Workers: cfg.Workers},
			&PersistStep{Repo: cfg.Repo},
		),
	}
}

// Import runs the pipeline for req. A file with no transactions is a
// successful import of zero rows.
func (im *Importer) Import(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}
	if len(req.Data) == 0 && req.ArchiveURI == "" {
		return nil, fmt.Errorf("%w: empty statement file", domain.ErrInvalidInput)
	}
	req.MimeType = ResolveMimeType(req.Filename, req.MimeType)

	log := logger.FromContext(ctx).With().
		Str("user_id", req.UserID).
		Str("filename", req.Filename).
		Str("mime_type", req.MimeType).
		Logger()
	ctx = logger.WithContext(ctx, log)

	state := &State{Request: req}
	if err := im.pipeline.Execute(ctx, state); err != nil {
		return nil, err
	}

	log.Info().
		Int("parsed", state.Result.Parsed).
		Int("imported", state.Result.Imported).
		Int("skipped", state.Result.Skipped).
		Int("uncategorized", state.Result.Uncategorized).
		Bool("dry_run", req.DryRun).
		Msg("Statement imported")
	return &state.Result, nil
}

// ResolveMimeType returns declared unless it is empty or a generic binary
// type, in which case the file extension decides.
func ResolveMimeType(filename, declared string) string {
	d := strings.ToLower(strings.TrimSpace(declared))
	if d != "" && !strings.HasPrefix(d, "application/octet-stream") && !strings.HasPrefix(d, "text/plain") {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return statement.MimePDF
	case ".csv":
		return statement.MimeCSV
	}
	return declared
}
