package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

type CategoryLimitRow struct {
	Category    string   `bigquery:"category"`
	LimitAmount *big.Rat `bigquery:"limit_amount"`
}

type BudgetRow struct {
	BudgetID        string             `bigquery:"budget_id"`
	UserID          string             `bigquery:"user_id"`
	Month           string             `bigquery:"month"`
	TotalLimit      *big.Rat           `bigquery:"total_limit"`
	CategoryBudgets []CategoryLimitRow `bigquery:"category_budgets"` // REPEATED RECORD
	UpdatedTS       time.Time          `bigquery:"updated_ts"`
}

func budgetToRow(b domain.Budget) BudgetRow {
	row := BudgetRow{
		BudgetID:        b.ID,
		UserID:          b.UserID,
		Month:           b.Month,
		TotalLimit:      toRat(b.TotalLimit),
		CategoryBudgets: make([]CategoryLimitRow, 0, len(b.Categories)),
		UpdatedTS:       b.UpdatedAt,
	}
	for _, c := range b.Categories {
		row.CategoryBudgets = append(row.CategoryBudgets, CategoryLimitRow{Category: c.Category, LimitAmount: toRat(c.Limit)})
	}
	return row
}

func (r BudgetRow) toDomain() domain.Budget {
	b := domain.Budget{
		ID:         r.BudgetID,
		UserID:     r.UserID,
		Month:      r.Month,
		TotalLimit: fromRat(r.TotalLimit),
		Categories: make([]domain.CategoryLimit, 0, len(r.CategoryBudgets)),
		UpdatedAt:  r.UpdatedTS,
	}
	for _, c := range r.CategoryBudgets {
		b.Categories = append(b.Categories, domain.CategoryLimit{Category: c.Category, Limit: fromRat(c.LimitAmount)})
	}
	return b
}

// BudgetRepository implements repository.BudgetRepository.
type BudgetRepository struct {
	db  *DB
	now func() time.Time
}

// NewBudgetRepository creates a repository on db.
func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db, now: time.Now}
}

// Upsert implements repository.BudgetRepository with a single MERGE keyed on
// (user_id, month).
func (r *BudgetRepository) Upsert(ctx context.Context, b domain.Budget) (*domain.Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.UpdatedAt = r.now().UTC()
	row := budgetToRow(b)

	_, err := r.db.exec(ctx, fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @user_id AS user_id, @month AS month) S
		ON T.user_id = S.user_id AND T.month = S.month
		WHEN MATCHED THEN
		  UPDATE SET total_limit = @total_limit,
		             category_budgets = @category_budgets,
		             updated_ts = @updated_ts
		WHEN NOT MATCHED THEN
		  INSERT (budget_id, user_id, month, total_limit, category_budgets, updated_ts)
		  VALUES (@budget_id, @user_id, @month, @total_limit, @category_budgets, @updated_ts)
	`, r.db.table(budgetsTable)), []bigquery.QueryParameter{
		{Name: "budget_id", Value: row.BudgetID},
		{Name: "user_id", Value: row.UserID},
		{Name: "month", Value: row.Month},
		{Name: "total_limit", Value: row.TotalLimit},
		{Name: "category_budgets", Value: row.CategoryBudgets},
		{Name: "updated_ts", Value: row.UpdatedTS},
	})
	if err != nil {
		return nil, fmt.Errorf("Upsert budget: %w", err)
	}
	return r.Get(ctx, b.UserID, b.Month)
}

// Get implements repository.BudgetRepository.
func (r *BudgetRepository) Get(ctx context.Context, userID, month string) (*domain.Budget, error) {
	rows, err := readAll[BudgetRow](ctx, r.db, fmt.Sprintf(`
		SELECT budget_id, user_id, month, total_limit, category_budgets, updated_ts
		FROM %s
		WHERE user_id = @user_id AND month = @month
		LIMIT 1
	`, r.db.table(budgetsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "month", Value: month},
	})
	if err != nil {
		return nil, fmt.Errorf("Get budget: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("budget %s: %w", month, domain.ErrNotFound)
	}
	b := rows[0].toDomain()
	return &b, nil
}

var _ repository.BudgetRepository = (*BudgetRepository)(nil)
