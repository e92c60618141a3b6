// Package repository declares the persistence contracts shared by the API,
// the importer and the CLI. Implementations live in repository/memory and
// infra/bigquery.
package repository

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
)

// Pagination defaults for transaction listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	UserID    string
	From      civil.Date
	To        civil.Date
	Category  string
	Direction domain.Direction
	Page      int
	Limit     int
}

// Normalize clamps Page and Limit into their allowed ranges.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Offset returns how many rows precede the requested page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether t passes every non-zero condition of the filter.
func (f TransactionFilter) Matches(t domain.Transaction) bool {
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Direction != "" && t.Direction != f.Direction {
		return false
	}
	return true
}

// TransactionRepository stores transactions. Listings are ordered by date
// descending, then creation time descending.
type TransactionRepository interface {
	// Insert stores a single transaction, assigning an ID when empty.
	Insert(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)

	// InsertBatch stores transactions in one write. Missing IDs are assigned
	// in place.
	InsertBatch(ctx context.Context, ts []domain.Transaction) error

	Get(ctx context.Context, userID, id string) (*domain.Transaction, error)
	Update(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id string) error

	// List returns one page of matching transactions and the total number of
	// matches.
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, int, error)

	// ListRange returns every transaction of userID dated within [from, to],
	// oldest first.
	ListRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.Transaction, error)
}

// BudgetRepository stores one budget per (user, month).
type BudgetRepository interface {
	Upsert(ctx context.Context, b domain.Budget) (*domain.Budget, error)
	Get(ctx context.Context, userID, month string) (*domain.Budget, error)
}

// InvestmentRepository stores investments, listed by name.
type InvestmentRepository interface {
	Create(ctx context.Context, inv domain.Investment) (*domain.Investment, error)
	Get(ctx context.Context, userID, id string) (*domain.Investment, error)
	List(ctx context.Context, userID string) ([]domain.Investment, error)
	Update(ctx context.Context, inv domain.Investment) (*domain.Investment, error)
	Delete(ctx context.Context, userID, id string) error
}

// SubscriptionRepository stores subscriptions, listed by next renewal date
// ascending.
type SubscriptionRepository interface {
	Create(ctx context.Context, s domain.Subscription) (*domain.Subscription, error)
	Get(ctx context.Context, userID, id string) (*domain.Subscription, error)
	List(ctx context.Context, userID string) ([]domain.Subscription, error)
	Update(ctx context.Context, s domain.Subscription) (*domain.Subscription, error)
	Delete(ctx context.Context, userID, id string) error
}
