// Package memory implements the repository interfaces in process memory.
// It backs dev mode and tests; data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

// TransactionRepository is an in-memory repository.TransactionRepository.
type TransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]domain.Transaction
	now  func() time.Time
}

// NewTransactionRepository creates an empty repository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		txns: make(map[string]domain.Transaction),
		now:  time.Now,
	}
}

// Insert implements repository.TransactionRepository.
func (r *TransactionRepository) Insert(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t = r.prepare(t)
	if _, exists := r.txns[t.ID]; exists {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, domain.ErrDuplicate)
	}
	r.txns[t.ID] = t
	return &t, nil
}

// InsertBatch implements repository.TransactionRepository. The batch is
// validated as a whole before anything is stored.
func (r *TransactionRepository) InsertBatch(ctx context.Context, ts []domain.Transaction) error {
	for i := range ts {
		if err := ts[i].Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range ts {
		ts[i] = r.prepare(ts[i])
		if _, exists := r.txns[ts[i].ID]; exists {
			return fmt.Errorf("transaction %s: %w", ts[i].ID, domain.ErrDuplicate)
		}
	}
	for _, t := range ts {
		r.txns[t.ID] = t
	}
	return nil
}

// prepare assigns the ID and timestamps. Must be called with the lock held.
func (r *TransactionRepository) prepare(t domain.Transaction) domain.Transaction {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}

// Get implements repository.TransactionRepository.
func (r *TransactionRepository) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.txns[id]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

// Update implements repository.TransactionRepository.
func (r *TransactionRepository) Update(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.txns[t.ID]
	if !ok || old.UserID != t.UserID {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, domain.ErrNotFound)
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = r.now()
	r.txns[t.ID] = t
	return &t, nil
}

// Delete implements repository.TransactionRepository.
func (r *TransactionRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.txns[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	delete(r.txns, id)
	return nil
}

// List implements repository.TransactionRepository.
func (r *TransactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, int, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	var matched []domain.Transaction
	for _, t := range r.txns {
		if filter.Matches(t) {
			matched = append(matched, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := filter.Offset()
	if start >= total {
		return []domain.Transaction{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ListRange implements repository.TransactionRepository.
func (r *TransactionRepository) ListRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.Transaction, error) {
	filter := repository.TransactionFilter{UserID: userID, From: from, To: to}

	r.mu.RLock()
	var out []domain.Transaction
	for _, t := range r.txns {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
