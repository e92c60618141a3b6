package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/statement"
)

// FetchStep loads the file from the archive when the request carries only
// an archive URI.
type FetchStep struct {
	Archive archive.Archive
}

func (s *FetchStep) Name() string { return "fetch" }

func (s *FetchStep) Execute(ctx context.Context, state *State) error {
	if len(state.Data) > 0 || state.ArchiveURI == "" {
		return nil
	}
	if s.Archive == nil {
		return fmt.Errorf("%w: no archive configured to fetch %s", domain.ErrInvalidInput, state.ArchiveURI)
	}
	data, err := s.Archive.Fetch(ctx, state.ArchiveURI)
	if err != nil {
		return err
	}
	state.Data = data
	if state.Filename == "" {
		state.Filename = archive.FilenameFromURI(state.ArchiveURI)
	}
	return nil
}

// ArchiveStep stores the original file. It is a no-op without an archive,
// for dry runs, and for files that came from the archive.
type ArchiveStep struct {
	Archive archive.Archive
}

func (s *ArchiveStep) Name() string { return "archive" }

func (s *ArchiveStep) Execute(ctx context.Context, state *State) error {
	if s.Archive == nil || state.DryRun || state.ArchiveURI != "" {
		state.Result.ArchiveURI = state.ArchiveURI
		return nil
	}
	uri, err := s.Archive.Put(ctx, state.Filename, state.MimeType, state.Data)
	if err != nil {
		return err
	}
	state.ArchiveURI = uri
	state.Result.ArchiveURI = uri
	return nil
}

// ParseStep extracts candidates from the file.
type ParseStep struct {
	Parser *statement.Parser
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Execute(ctx context.Context, state *State) error {
	format, err := statement.DetectFormat(state.MimeType)
	if err != nil {
		return err
	}
	state.Source = domain.SourceCSV
	if format == statement.FormatPDF {
		state.Source = domain.SourcePDF
	}

	candidates, err := s.Parser.Parse(ctx, state.Data, state.MimeType)
	if err != nil {
		return err
	}
	state.Candidates = candidates
	state.Result.Parsed = len(candidates)
	return nil
}

// CategorizeStep assigns a category to every candidate from one rule
// snapshot.
type CategorizeStep struct {
	Categorizer *categorizer.Categorizer
	Workers     int
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *State) error {
	state.Categories = s.Categorizer.CategorizeAll(ctx, state.Candidates, s.Workers)
	return nil
}

// PersistStep converts candidates to transactions and stores them in one
// batch. Candidates that fail validation are counted as skipped.
type PersistStep struct {
	Repo repository.TransactionRepository
	Now  func() time.Time
}

func (s *PersistStep) Name() string { return "persist" }

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now().UTC()

	txns := make([]domain.Transaction, 0, len(state.Candidates))
	for i, c := range state.Candidates {
		category := ""
		if i < len(state.Categories) {
			category = state.Categories[i]
		}
		t := c.ToTransaction(state.UserID, category, state.Source, ts)
		if err := t.Validate(); err != nil {
			state.Result.Skipped++
			continue
		}
		if t.Category == domain.UncategorizedCategory {
			state.Result.Uncategorized++
		}
		txns = append(txns, t)
	}

	if !state.DryRun && len(txns) > 0 {
		if err := s.Repo.InsertBatch(ctx, txns); err != nil {
			return err
		}
		state.Result.Imported = len(txns)
	}
	state.Transactions = txns
	state.Result.Transactions = txns
	return nil
}
