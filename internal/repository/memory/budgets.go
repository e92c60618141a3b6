package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

type budgetKey struct {
	userID, month string
}

// BudgetRepository is an in-memory repository.BudgetRepository.
type BudgetRepository struct {
	mu      sync.RWMutex
	budgets map[budgetKey]domain.Budget
	now     func() time.Time
}

// NewBudgetRepository creates an empty repository.
func NewBudgetRepository() *BudgetRepository {
	return &BudgetRepository{
		budgets: make(map[budgetKey]domain.Budget),
		now:     time.Now,
	}
}

// Upsert implements repository.BudgetRepository. An existing budget for the
// same user and month keeps its ID and is replaced.
func (r *BudgetRepository) Upsert(ctx context.Context, b domain.Budget) (*domain.Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := budgetKey{b.UserID, b.Month}
	if old, ok := r.budgets[key]; ok {
		b.ID = old.ID
	} else if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Categories = append([]domain.CategoryLimit{}, b.Categories...)
	b.UpdatedAt = r.now()
	r.budgets[key] = b

	out := b
	out.Categories = append([]domain.CategoryLimit{}, b.Categories...)
	return &out, nil
}

// Get implements repository.BudgetRepository.
func (r *BudgetRepository) Get(ctx context.Context, userID, month string) (*domain.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.budgets[budgetKey{userID, month}]
	if !ok {
		return nil, fmt.Errorf("budget %s: %w", month, domain.ErrNotFound)
	}
	b.Categories = append([]domain.CategoryLimit{}, b.Categories...)
	return &b, nil
}

var _ repository.BudgetRepository = (*BudgetRepository)(nil)
