package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/archive"
	"github.com/dvloznov/spendwise/internal/categorizer"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/dvloznov/spendwise/internal/repository/memory"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/dvloznov/spendwise/internal/statement"
)

const sampleCSV = "Date,Description,Amount,Type\n" +
	"2024-03-01,SWIGGY ORDER 1234,350.00,debit\n" +
	"2024-03-02,Salary March,85000.00,credit\n" +
	"2024-03-03,Corner shop,0.00,debit\n" +
	"2024-03-04,Mystery vendor,99.50,debit\n"

// mockStep records calls and returns a configured error.
type mockStep struct {
	name        string
	ExecuteFunc func(ctx context.Context, state *State) error
	called      bool
}

func (m *mockStep) Name() string { return m.name }

func (m *mockStep) Execute(ctx context.Context, state *State) error {
	m.called = true
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// failingRepo fails every batch insert.
type failingRepo struct {
	repository.TransactionRepository
	err error
}

func (f *failingRepo) InsertBatch(ctx context.Context, ts []domain.Transaction) error {
	return f.err
}

func newCategorizer(t *testing.T) *categorizer.Categorizer {
	t.Helper()
	store := rules.NewMemoryStore()
	if _, err := rules.Seed(context.Background(), store, rules.Defaults()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return categorizer.New(store)
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	first := &mockStep{name: "first"}
	second := &mockStep{name: "second", ExecuteFunc: func(ctx context.Context, s *State) error { return boom }}
	third := &mockStep{name: "third"}

	err := NewPipeline(first, second, third).Execute(context.Background(), &State{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline step 2 (second) failed") {
		t.Errorf("unexpected error text: %v", err)
	}
	if !first.called || !second.called || third.called {
		t.Errorf("called = %v %v %v, want true true false", first.called, second.called, third.called)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := &mockStep{name: "only"}
	err := NewPipeline(step).Execute(ctx, &State{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if step.called {
		t.Error("step should not run on a cancelled context")
	}
}

func TestImport_CSV(t *testing.T) {
	repo := memory.NewTransactionRepository()
	arch := archive.NewMemoryArchive("statements")
	im := New(Config{
		Categorizer: newCategorizer(t),
		Repo:        repo,
		Archive:     arch,
		Workers:     2,
	})

	res, err := im.Import(context.Background(), Request{
		UserID:   "u1",
		Filename: "march.csv",
		Data:     []byte(sampleCSV),
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if res.Imported != 3 {
		t.Errorf("Imported = %d, want 3", res.Imported)
	}
	if res.Uncategorized != 1 {
		t.Errorf("Uncategorized = %d, want 1", res.Uncategorized)
	}
	if !strings.HasPrefix(res.ArchiveURI, "gs://statements/") {
		t.Errorf("ArchiveURI = %q", res.ArchiveURI)
	}

	stored, err := repo.ListRange(context.Background(), "u1",
		civil.Date{Year: 2024, Month: 3, Day: 1}, civil.Date{Year: 2024, Month: 3, Day: 31})
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d transactions, want 3", len(stored))
	}
	categories := map[string]string{}
	for _, tx := range stored {
		categories[tx.Description] = tx.Category
		if tx.Source != domain.SourceCSV {
			t.Errorf("%s source = %s, want csv", tx.Description, tx.Source)
		}
		if tx.ID == "" {
			t.Errorf("%s has no ID", tx.Description)
		}
	}
	want := map[string]string{
		"SWIGGY ORDER 1234": "Food & Dining",
		"Salary March":      "Income",
		"Mystery vendor":    domain.UncategorizedCategory,
	}
	for desc, cat := range want {
		if categories[desc] != cat {
			t.Errorf("%s category = %q, want %q", desc, categories[desc], cat)
		}
	}
}

func TestImport_DryRunStoresNothing(t *testing.T) {
	repo := memory.NewTransactionRepository()
	arch := archive.NewMemoryArchive("statements")
	im := New(Config{Categorizer: newCategorizer(t), Repo: repo, Archive: arch})

	res, err := im.Import(context.Background(), Request{
		UserID:   "u1",
		Filename: "march.csv",
		MimeType: statement.MimeCSV,
		Data:     []byte(sampleCSV),
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 0 {
		t.Errorf("Imported = %d, want 0", res.Imported)
	}
	if len(res.Transactions) != 3 {
		t.Errorf("preview has %d transactions, want 3", len(res.Transactions))
	}
	if res.ArchiveURI != "" {
		t.Errorf("dry run archived the file at %q", res.ArchiveURI)
	}

	_, total, err := repo.List(context.Background(), repository.TransactionFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 0 {
		t.Errorf("repository holds %d transactions after dry run", total)
	}
}

func TestImport_FromArchive(t *testing.T) {
	ctx := context.Background()
	arch := archive.NewMemoryArchive("statements")
	uri, err := arch.Put(ctx, "march.csv", statement.MimeCSV, []byte(sampleCSV))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	repo := memory.NewTransactionRepository()
	im := New(Config{Categorizer: newCategorizer(t), Repo: repo, Archive: arch})
	res, err := im.Import(ctx, Request{UserID: "u1", ArchiveURI: uri, MimeType: statement.MimeCSV})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 3 {
		t.Errorf("Imported = %d, want 3", res.Imported)
	}
	if res.ArchiveURI != uri {
		t.Errorf("ArchiveURI = %q, want %q", res.ArchiveURI, uri)
	}
}

func TestImport_Errors(t *testing.T) {
	storeErr := errors.New("store down")
	tests := []struct {
		name    string
		repo    repository.TransactionRepository
		req     Request
		wantErr error
	}{
		{
			name:    "missing user",
			req:     Request{Filename: "a.csv", Data: []byte(sampleCSV)},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty file",
			req:     Request{UserID: "u1", Filename: "a.csv"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unsupported type",
			req:     Request{UserID: "u1", Filename: "a.xlsx", MimeType: "application/vnd.ms-excel", Data: []byte("x")},
			wantErr: statement.ErrUnsupportedFormat,
		},
		{
			name:    "repository failure",
			repo:    &failingRepo{err: storeErr},
			req:     Request{UserID: "u1", Filename: "a.csv", Data: []byte(sampleCSV)},
			wantErr: storeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.repo
			if repo == nil {
				repo = memory.NewTransactionRepository()
			}
			im := New(Config{Categorizer: newCategorizer(t), Repo: repo})
			_, err := im.Import(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestImport_NoTransactionsIsNotAnError(t *testing.T) {
	im := New(Config{Categorizer: newCategorizer(t), Repo: memory.NewTransactionRepository()})
	res, err := im.Import(context.Background(), Request{
		UserID:   "u1",
		Filename: "empty.csv",
		Data:     []byte("Date,Description,Amount\n"),
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Parsed != 0 || res.Imported != 0 {
		t.Errorf("got %+v, want zero counts", res)
	}
}

func TestResolveMimeType(t *testing.T) {
	tests := []struct {
		filename, declared, want string
	}{
		{"a.pdf", "", statement.MimePDF},
		{"a.CSV", "application/octet-stream", statement.MimeCSV},
		{"a.csv", "text/plain; charset=utf-8", statement.MimeCSV},
		{"a.csv", "application/csv", "application/csv"},
		{"a.txt", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveMimeType(tt.filename, tt.declared); got != tt.want {
			t.Errorf("ResolveMimeType(%q, %q) = %q, want %q", tt.filename, tt.declared, got, tt.want)
		}
	}
}
