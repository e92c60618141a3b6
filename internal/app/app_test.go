package app

import (
	"context"
	"testing"

	"github.com/dvloznov/spendwise/internal/config"
	"github.com/dvloznov/spendwise/internal/jobs"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/statement"
)

func memoryConfig() config.Config {
	return config.Config{
		StorageBackend:   config.BackendMemory,
		PDFExtractor:     config.ExtractorText,
		ImportWorkers:    2,
		MaxUploadBytes:   1 << 20,
		SeedDefaultRules: true,
	}
}

func TestNew_MemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	list, err := a.Rules.List(ctx)
	if err != nil {
		t.Fatalf("List rules failed: %v", err)
	}
	if len(list) == 0 {
		t.Error("expected default rules to be seeded")
	}
	if got := a.Categorizer.Categorize(ctx, "UBER *TRIP"); got != "Transport" {
		t.Errorf("Categorize = %q, want Transport", got)
	}
}

func TestNew_WithoutSeed(t *testing.T) {
	cfg := memoryConfig()
	cfg.SeedDefaultRules = false

	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	list, _ := a.Rules.List(context.Background())
	if len(list) != 0 {
		t.Errorf("got %d rules, want none", len(list))
	}
}

func TestNew_LineFormats(t *testing.T) {
	t.Run("default keeps the marker format", func(t *testing.T) {
		a, err := New(context.Background(), memoryConfig(), logger.Nop())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Close()
		if got := a.Parser.Strategies(); len(got) != 1 || got[0] != config.LineFormatMarker {
			t.Errorf("Strategies() = %v, want [%s]", got, config.LineFormatMarker)
		}
	})

	t.Run("configured order is kept", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.PDFLineFormats = []string{config.LineFormatSigned, config.LineFormatMarker}
		a, err := New(context.Background(), cfg, logger.Nop())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Close()
		got := a.Parser.Strategies()
		if len(got) != 2 || got[0] != config.LineFormatSigned || got[1] != config.LineFormatMarker {
			t.Errorf("Strategies() = %v", got)
		}
	})

	t.Run("unknown format fails", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.PDFLineFormats = []string{"fixed-width"}
		if _, err := New(context.Background(), cfg, logger.Nop()); err == nil {
			t.Error("New succeeded with an unknown line format")
		}
	})
}

func TestImportJobHandler(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	data := []byte("Date,Description,Amount,Type\n2024-03-01,Uber ride,250,debit\n")
	uri, err := a.Archive.Put(ctx, "march.csv", statement.MimeCSV, data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	job := &jobs.ImportStatementJob{JobID: "j1", UserID: "u1", ArchiveURI: uri, Filename: "march.csv", MimeType: statement.MimeCSV}
	if err := a.ImportJobHandler()(ctx, job); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if job.Imported != 1 {
		t.Errorf("Imported = %d, want 1", job.Imported)
	}

	txns, total, err := a.Transactions.List(ctx, repository.TransactionFilter{UserID: "u1"}.Normalize())
	if err != nil || total != 1 {
		t.Fatalf("List = %d, %v", total, err)
	}
	if txns[0].Category != "Transport" {
		t.Errorf("Category = %q, want Transport", txns[0].Category)
	}
}

func TestImportJobHandler_MissingArchive(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	job := &jobs.ImportStatementJob{JobID: "j1", UserID: "u1", ArchiveURI: "gs://spendwise-local/statements/missing.csv", Filename: "missing.csv"}
	if err := a.ImportJobHandler()(context.Background(), job); err == nil {
		t.Error("expected error for missing archive object")
	}
}
