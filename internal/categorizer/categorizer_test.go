package categorizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/rules"
)

// failingStore simulates an unreachable rule backend.
type failingStore struct {
	rules.Store
}

func (failingStore) List(ctx context.Context) ([]domain.CategoryRule, error) {
	return nil, errors.New("connection refused")
}

func seededCategorizer(t *testing.T) *Categorizer {
	t.Helper()
	store := rules.NewMemoryStore()
	if _, err := rules.Seed(context.Background(), store, rules.Defaults()); err != nil {
		t.Fatalf("seeding rules: %v", err)
	}
	return New(store)
}

func TestCategorize_SeededKeywords(t *testing.T) {
	c := seededCategorizer(t)
	ctx := context.Background()

	tests := []struct {
		description string
		want        string
	}{
		{"UPI/ZOMATO ORDER 12345", "Food & Dining"},
		{"Uber trip Bangalore", "Transport"},
		{"SALARY CREDIT MARCH", "Income"},
		{"ATM WDL MG ROAD", "Banking"},
		{"Monthly RENT payment", "Rent"},
		{"NETFLIX.COM", "Entertainment"},
		{"Apollo Pharmacy", "Healthcare"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := c.Categorize(ctx, tt.description); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestCategorize_Uncategorized(t *testing.T) {
	c := seededCategorizer(t)
	ctx := context.Background()

	for _, d := range []string{"", "   ", "XYZ 000 QWERTY"} {
		if got := c.Categorize(ctx, d); got != Uncategorized {
			t.Errorf("Categorize(%q) = %q, want %q", d, got, Uncategorized)
		}
	}
}

func TestCategorize_HigherPriorityWinsOverLongerKeyword(t *testing.T) {
	store := rules.NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "amazon", Category: "Shopping", Priority: 10})
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "amazon prime video", Category: "Entertainment", Priority: 5})

	c := New(store)
	if got := c.Categorize(ctx, "AMAZON PRIME VIDEO SUBSCRIPTION"); got != "Shopping" {
		t.Errorf("expected the higher priority rule to win, got %q", got)
	}
}

func TestCategorize_EqualPriorityUsesKeywordOrder(t *testing.T) {
	store := rules.NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "netflix", Category: "Entertainment", Priority: 10})
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "amazon", Category: "Shopping", Priority: 10})

	c := New(store)
	for i := 0; i < 20; i++ {
		if got := c.Categorize(ctx, "amazon netflix bundle"); got != "Shopping" {
			t.Fatalf("run %d: got %q, want Shopping", i, got)
		}
	}
}

func TestCategorize_StoreUnavailable(t *testing.T) {
	c := New(failingStore{})
	if got := c.Categorize(context.Background(), "uber ride"); got != Uncategorized {
		t.Errorf("expected %q on store failure, got %q", Uncategorized, got)
	}

	out := c.CategorizeAll(context.Background(), []domain.Candidate{{Description: "uber"}, {Description: "zomato"}}, 2)
	for i, got := range out {
		if got != Uncategorized {
			t.Errorf("candidate %d = %q, want %q", i, got, Uncategorized)
		}
	}
}

func TestCategorizeAll_PreservesOrder(t *testing.T) {
	c := seededCategorizer(t)

	var candidates []domain.Candidate
	var want []string
	samples := map[string]string{
		"swiggy":   "Food & Dining",
		"ola cab":  "Transport",
		"flipkart": "Shopping",
		"unknown":  Uncategorized,
	}
	keys := []string{"swiggy", "ola cab", "flipkart", "unknown"}
	for i := 0; i < 200; i++ {
		k := keys[i%len(keys)]
		candidates = append(candidates, domain.Candidate{Description: fmt.Sprintf("%s #%d", k, i)})
		want = append(want, samples[k])
	}

	got := c.CategorizeAll(context.Background(), candidates, 4)
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRuleSet_SnapshotIsolatedFromLaterWrites(t *testing.T) {
	store := rules.NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "tesco", Category: "Groceries"})

	c := New(store)
	snap, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = store.Create(ctx, domain.CategoryRule{Keyword: "boots", Category: "Healthcare"})

	if got := snap.Match("BOOTS PHARMACY"); got != Uncategorized {
		t.Errorf("snapshot saw a rule created after it was taken: %q", got)
	}
	if snap.Len() != 1 {
		t.Errorf("snapshot has %d rules, want 1", snap.Len())
	}
}
