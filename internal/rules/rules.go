// Package rules owns the keyword rule set used by the categorizer.
package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/spendwise/internal/domain"
)

// Store persists category rules. List must return a consistent snapshot
// sorted with Sort.
type Store interface {
	List(ctx context.Context) ([]domain.CategoryRule, error)
	Get(ctx context.Context, id string) (*domain.CategoryRule, error)
	Create(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error)
	Update(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error)
	Delete(ctx context.Context, id string) error
}

// Normalize lowercases and trims the keyword and trims the category.
func Normalize(rule domain.CategoryRule) (domain.CategoryRule, error) {
	rule.Keyword = strings.ToLower(strings.TrimSpace(rule.Keyword))
	rule.Category = strings.TrimSpace(rule.Category)
	if rule.Keyword == "" {
		return rule, fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}
	if rule.Category == "" {
		return rule, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	return rule, nil
}

// Sort orders rules by priority descending. Equal priorities are ordered by
// keyword ascending so the result never depends on storage order.
func Sort(rules []domain.CategoryRule) {
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].Keyword < rules[j].Keyword
	})
}

// Seed inserts every rule whose keyword is not stored yet and returns how
// many were added. Running it twice adds nothing the second time.
func Seed(ctx context.Context, store Store, seed []domain.CategoryRule) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("Seed: listing rules: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.Keyword] = true
	}

	added := 0
	for _, r := range seed {
		n, err := Normalize(r)
		if err != nil {
			return added, fmt.Errorf("Seed: rule %q: %w", r.Keyword, err)
		}
		if known[n.Keyword] {
			continue
		}
		if _, err := store.Create(ctx, n); err != nil {
			return added, fmt.Errorf("Seed: creating %q: %w", n.Keyword, err)
		}
		known[n.Keyword] = true
		added++
	}
	return added, nil
}
