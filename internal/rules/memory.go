package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store safe for concurrent use. Readers get
// copies, so a List taken during a write sees either the old or the new rule.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]domain.CategoryRule
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules: make(map[string]domain.CategoryRule),
		now:   time.Now,
	}
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]domain.CategoryRule, error) {
	s.mu.RLock()
	out := make([]domain.CategoryRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	s.mu.RUnlock()

	Sort(out)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.CategoryRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error) {
	rule, err := Normalize(rule)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keywordTaken(rule.Keyword, "") {
		return nil, fmt.Errorf("keyword %q: %w", rule.Keyword, domain.ErrDuplicate)
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = s.now()
	}
	s.rules[rule.ID] = rule
	return &rule, nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error) {
	rule, err := Normalize(rule)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.rules[rule.ID]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, domain.ErrNotFound)
	}
	if s.keywordTaken(rule.Keyword, rule.ID) {
		return nil, fmt.Errorf("keyword %q: %w", rule.Keyword, domain.ErrDuplicate)
	}
	rule.CreatedAt = old.CreatedAt
	s.rules[rule.ID] = rule
	return &rule, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
	}
	delete(s.rules, id)
	return nil
}

// keywordTaken must be called with the lock held.
func (s *MemoryStore) keywordTaken(keyword, exceptID string) bool {
	for id, r := range s.rules {
		if id != exceptID && r.Keyword == keyword {
			return true
		}
	}
	return false
}

var _ Store = (*MemoryStore)(nil)
