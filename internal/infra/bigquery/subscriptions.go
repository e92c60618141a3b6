package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

type SubscriptionRow struct {
	SubscriptionID string     `bigquery:"subscription_id"`
	UserID         string     `bigquery:"user_id"`
	Name           string     `bigquery:"name"`
	Amount         *big.Rat   `bigquery:"amount"`
	BillingCycle   string     `bigquery:"billing_cycle"`
	StartDate      civil.Date `bigquery:"start_date"`
	UpdatedTS      time.Time  `bigquery:"updated_ts"`
}

const subscriptionColumns = `subscription_id, user_id, name, amount, billing_cycle, start_date, updated_ts`

// SubscriptionRepository implements repository.SubscriptionRepository. The
// next renewal date is derived on read and never stored, so it cannot go
// stale.
type SubscriptionRepository struct {
	db  *DB
	now func() time.Time
}

// NewSubscriptionRepository creates a repository on db.
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, now: time.Now}
}

func (r *SubscriptionRepository) toDomain(row SubscriptionRow) domain.Subscription {
	s := domain.Subscription{
		ID:        row.SubscriptionID,
		UserID:    row.UserID,
		Name:      row.Name,
		Amount:    fromRat(row.Amount),
		Cycle:     domain.Cycle(row.BillingCycle),
		StartDate: row.StartDate,
		UpdatedAt: row.UpdatedTS,
	}
	s.NextRenewalDate = dates.NextRenewal(s.StartDate, s.Cycle, r.now())
	return s
}

func subscriptionParams(s domain.Subscription) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "id", Value: s.ID},
		{Name: "user_id", Value: s.UserID},
		{Name: "name", Value: s.Name},
		{Name: "amount", Value: toRat(s.Amount)},
		{Name: "billing_cycle", Value: string(s.Cycle)},
		{Name: "start_date", Value: s.StartDate},
		{Name: "updated_ts", Value: s.UpdatedAt},
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) (*domain.Subscription, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = r.now().UTC()

	if _, err := r.db.exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@id, @user_id, @name, @amount, @billing_cycle, @start_date, @updated_ts)
	`, r.db.table(subscriptionsTable), subscriptionColumns), subscriptionParams(s)); err != nil {
		return nil, fmt.Errorf("Create subscription: %w", err)
	}
	s.NextRenewalDate = dates.NextRenewal(s.StartDate, s.Cycle, r.now())
	return &s, nil
}

func (r *SubscriptionRepository) Get(ctx context.Context, userID, id string) (*domain.Subscription, error) {
	rows, err := readAll[SubscriptionRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND subscription_id = @id
	`, subscriptionColumns, r.db.table(subscriptionsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return nil, fmt.Errorf("Get subscription: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("subscription %s: %w", id, domain.ErrNotFound)
	}
	s := r.toDomain(rows[0])
	return &s, nil
}

// List implements repository.SubscriptionRepository. Ordering happens after
// the renewal dates are derived.
func (r *SubscriptionRepository) List(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := readAll[SubscriptionRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
	`, subscriptionColumns, r.db.table(subscriptionsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("List subscriptions: %w", err)
	}

	out := make([]domain.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.toDomain(row))
	}
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
	s.UpdatedAt = r.now().UTC()

	n, err := r.db.exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET name = @name,
		    amount = @amount,
		    billing_cycle = @billing_cycle,
		    start_date = @start_date,
		    updated_ts = @updated_ts
		WHERE user_id = @user_id AND subscription_id = @id
	`, r.db.table(subscriptionsTable)), subscriptionParams(s))
	if err != nil {
		return nil, fmt.Errorf("Update subscription: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("subscription %s: %w", s.ID, domain.ErrNotFound)
	}
	s.NextRenewalDate = dates.NextRenewal(s.StartDate, s.Cycle, r.now())
	return &s, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.db.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = @user_id AND subscription_id = @id
	`, r.db.table(subscriptionsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("Delete subscription: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
