package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

// InvestmentRepository is an in-memory repository.InvestmentRepository.
type InvestmentRepository struct {
	mu   sync.RWMutex
	invs map[string]domain.Investment
	now  func() time.Time
}

// NewInvestmentRepository creates an empty repository.
func NewInvestmentRepository() *InvestmentRepository {
	return &InvestmentRepository{
		invs: make(map[string]domain.Investment),
		now:  time.Now,
	}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if _, exists := r.invs[inv.ID]; exists {
		return nil, fmt.Errorf("investment %s: %w", inv.ID, domain.ErrDuplicate)
	}
	inv.UpdatedAt = r.now()
	r.invs[inv.ID] = inv
	return &inv, nil
}

func (r *InvestmentRepository) Get(ctx context.Context, userID, id string) (*domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invs[id]
	if !ok || inv.UserID != userID {
		return nil, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}
	return &inv, nil
}

func (r *InvestmentRepository) List(ctx context.Context, userID string) ([]domain.Investment, error) {
	r.mu.RLock()
	out := []domain.Investment{}
	for _, inv := range r.invs {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InvestmentRepository) Update(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.invs[inv.ID]
	if !ok || old.UserID != inv.UserID {
		return nil, fmt.Errorf("investment %s: %w", inv.ID, domain.ErrNotFound)
	}
	inv.UpdatedAt = r.now()
	r.invs[inv.ID] = inv
	return &inv, nil
}

func (r *InvestmentRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invs[id]
	if !ok || inv.UserID != userID {
		return fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}
	delete(r.invs, id)
	return nil
}

var _ repository.InvestmentRepository = (*InvestmentRepository)(nil)
