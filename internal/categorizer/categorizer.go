// Package categorizer assigns categories to transaction descriptions using
// the keyword rules of a rules.Store.
//
// Matching is a case-insensitive substring test against rules in priority
// order; the first hit wins. A shorter keyword at a higher priority beats a
// longer, more specific keyword at a lower one.
package categorizer

import (
	"context"
	"runtime"
	"strings"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/rules"
	"golang.org/x/sync/errgroup"
)

// Uncategorized is returned when nothing matches.
const Uncategorized = domain.UncategorizedCategory

// RuleSet is an immutable, ordered snapshot of the rules.
type RuleSet struct {
	rules []domain.CategoryRule
}

// NewRuleSet copies and orders rules into a snapshot.
func NewRuleSet(list []domain.CategoryRule) *RuleSet {
	cp := make([]domain.CategoryRule, len(list))
	copy(cp, list)
	rules.Sort(cp)
	return &RuleSet{rules: cp}
}

// Len returns the number of rules in the snapshot.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Match returns the category of the first rule whose keyword occurs in
// description, or Uncategorized.
func (rs *RuleSet) Match(description string) string {
	normalized := strings.ToLower(strings.TrimSpace(description))
	if normalized == "" || rs == nil {
		return Uncategorized
	}
	for _, r := range rs.rules {
		if r.Keyword != "" && strings.Contains(normalized, r.Keyword) {
			return r.Category
		}
	}
	return Uncategorized
}

// Categorizer resolves categories against a live rule store.
type Categorizer struct {
	store rules.Store
}

// New creates a Categorizer reading from store.
func New(store rules.Store) *Categorizer {
	return &Categorizer{store: store}
}

// Snapshot reads the current rules once.
func (c *Categorizer) Snapshot(ctx context.Context) (*RuleSet, error) {
	list, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewRuleSet(list), nil
}

// Categorize returns the category for description. It never fails: an
// unavailable store degrades to Uncategorized.
func (c *Categorizer) Categorize(ctx context.Context, description string) string {
	if strings.TrimSpace(description) == "" {
		return Uncategorized
	}
	rs, err := c.Snapshot(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Rule store unavailable, leaving transaction uncategorized")
		return Uncategorized
	}
	return rs.Match(description)
}

// CategorizeAll categorizes a batch against a single snapshot. The result is
// index-aligned with candidates. workers <= 0 uses GOMAXPROCS.
func (c *Categorizer) CategorizeAll(ctx context.Context, candidates []domain.Candidate, workers int) []string {
	out := make([]string, len(candidates))
	rs, err := c.Snapshot(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("count", len(candidates)).Msg("Rule store unavailable, batch left uncategorized")
		for i := range out {
			out[i] = Uncategorized
		}
		return out
	}
	return MatchAll(ctx, rs, candidates, workers)
}

// MatchAll categorizes candidates against rs in parallel.
func MatchAll(ctx context.Context, rs *RuleSet, candidates []domain.Candidate, workers int) []string {
	out := make([]string, len(candidates))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			out[i] = rs.Match(candidates[i].Description)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
