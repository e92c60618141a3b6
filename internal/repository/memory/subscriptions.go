package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

// SubscriptionRepository is an in-memory repository.SubscriptionRepository.
// NextRenewalDate is recomputed on every write and read.
type SubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]domain.Subscription
	now  func() time.Time
}

// NewSubscriptionRepository creates an empty repository.
func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{
		subs: make(map[string]domain.Subscription),
		now:  time.Now,
	}
}

func (r *SubscriptionRepository) renew(s domain.Subscription) domain.Subscription {
	s.NextRenewalDate = dates.NextRenewal(s.StartDate, s.Cycle, r.now())
	return s
}

func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) (*domain.Subscription, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := r.subs[s.ID]; exists {
		return nil, fmt.Errorf("subscription %s: %w", s.ID, domain.ErrDuplicate)
	}
	s = r.renew(s)
	s.UpdatedAt = r.now()
	r.subs[s.ID] = s
	return &s, nil
}

func (r *SubscriptionRepository) Get(ctx context.Context, userID, id string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subs[id]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("subscription %s: %w", id, domain.ErrNotFound)
	}
	s = r.renew(s)
	return &s, nil
}

func (r *SubscriptionRepository) List(ctx context.Context, userID string) ([]domain.Subscription, error) {
	r.mu.RLock()
	out := []domain.Subscription{}
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, r.renew(s))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].NextRenewalDate != out[j].NextRenewalDate {
			return out[i].NextRenewalDate.Before(out[j].NextRenewalDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, s domain.Subscription) (*domain.Subscription, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.subs[s.ID]
	if !ok || old.UserID != s.UserID {
		return nil, fmt.Errorf("subscription %s: %w", s.ID, domain.ErrNotFound)
	}
	s = r.renew(s)
	s.UpdatedAt = r.now()
	r.subs[s.ID] = s
	return &s, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[id]
	if !ok || s.UserID != userID {
		return fmt.Errorf("subscription %s: %w", id, domain.ErrNotFound)
	}
	delete(r.subs, id)
	return nil
}

var _ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
