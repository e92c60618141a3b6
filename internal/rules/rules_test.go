package rules

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dvloznov/spendwise/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		rule        domain.CategoryRule
		wantKeyword string
		wantErr     bool
	}{
		{name: "lowercases and trims", rule: domain.CategoryRule{Keyword: "  Swiggy ", Category: " Food & Dining "}, wantKeyword: "swiggy"},
		{name: "empty keyword", rule: domain.CategoryRule{Keyword: "   ", Category: "Food"}, wantErr: true},
		{name: "empty category", rule: domain.CategoryRule{Keyword: "uber", Category: ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if got.Keyword != tt.wantKeyword {
				t.Errorf("Keyword = %q, want %q", got.Keyword, tt.wantKeyword)
			}
			if got.Category != strings.TrimSpace(tt.rule.Category) {
				t.Errorf("Category = %q not trimmed", got.Category)
			}
		})
	}
}

func TestSort_PriorityThenKeyword(t *testing.T) {
	rules := []domain.CategoryRule{
		{Keyword: "food", Priority: 3},
		{Keyword: "zomato", Priority: 10},
		{Keyword: "cafe", Priority: 5},
		{Keyword: "amazon", Priority: 10},
	}
	Sort(rules)

	want := []string{"amazon", "zomato", "cafe", "food"}
	for i, kw := range want {
		if rules[i].Keyword != kw {
			t.Errorf("position %d = %q, want %q", i, rules[i].Keyword, kw)
		}
	}
}

func TestMemoryStore_CreateRejectsDuplicateKeyword(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Create(ctx, domain.CategoryRule{Keyword: "Uber", Category: "Transport", Priority: 10}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, domain.CategoryRule{Keyword: " uber ", Category: "Other"})
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Create(ctx, domain.CategoryRule{Keyword: "netflix", Category: "Entertainment", Priority: 10})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("Create did not assign ID and timestamp: %+v", created)
	}

	other, err := store.Create(ctx, domain.CategoryRule{Keyword: "spotify", Category: "Entertainment"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Renaming onto an existing keyword is a duplicate.
	other.Keyword = "netflix"
	if _, err := store.Update(ctx, *other); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on rename, got %v", err)
	}

	created.Priority = 1
	updated, err := store.Update(ctx, *created)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Priority != 1 || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_ConcurrentListIsConsistent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "kw" + strings.Repeat("x", i), Category: "C"})
		}(i)
		go func() {
			defer wg.Done()
			list, err := store.List(ctx)
			if err != nil {
				t.Errorf("List failed: %v", err)
			}
			for _, r := range list {
				if r.Keyword == "" || r.Category == "" {
					t.Errorf("observed partially written rule %+v", r)
				}
			}
		}()
	}
	wg.Wait()

	list, _ := store.List(ctx)
	if len(list) != 50 {
		t.Errorf("expected 50 rules, got %d", len(list))
	}
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()
	if len(defaults) < 100 {
		t.Fatalf("expected the full default rule set, got %d rules", len(defaults))
	}

	seen := make(map[string]bool)
	for _, r := range defaults {
		if r.Keyword != strings.ToLower(strings.TrimSpace(r.Keyword)) {
			t.Errorf("keyword %q is not normalized", r.Keyword)
		}
		if seen[r.Keyword] {
			t.Errorf("duplicate default keyword %q", r.Keyword)
		}
		seen[r.Keyword] = true
	}

	for _, kw := range []string{"zomato", "uber", "salary", "atm", "rent"} {
		if !seen[kw] {
			t.Errorf("default rules missing %q", kw)
		}
	}
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	added, err := Seed(ctx, store, Defaults())
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if added != len(Defaults()) {
		t.Errorf("first Seed added %d, want %d", added, len(Defaults()))
	}

	added, err = Seed(ctx, store, Defaults())
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if added != 0 {
		t.Errorf("second Seed added %d, want 0", added)
	}
}

func TestLoadYAML(t *testing.T) {
	in := `
rules:
  - {keyword: " Tesco ", category: "Groceries", priority: 9}
  - keyword: trainline
    category: Transport
`
	got, err := LoadYAML(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got))
	}
	if got[0].Keyword != "tesco" || got[0].Priority != 9 {
		t.Errorf("unexpected first rule: %+v", got[0])
	}
	if got[1].Priority != 0 {
		t.Errorf("priority should default to 0, got %d", got[1].Priority)
	}

	if _, err := LoadYAML(strings.NewReader("rules:\n  - {keyword: x, category: y, weight: 2}\n")); err == nil {
		t.Error("expected an error for an unknown field")
	}
}
