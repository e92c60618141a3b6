package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

type InvestmentRow struct {
	InvestmentID   string     `bigquery:"investment_id"`
	UserID         string     `bigquery:"user_id"`
	Name           string     `bigquery:"name"`
	InitialAmount  *big.Rat   `bigquery:"initial_amount"`
	CurrentValue   *big.Rat   `bigquery:"current_value"`
	InvestmentDate civil.Date `bigquery:"investment_date"`
	UpdatedTS      time.Time  `bigquery:"updated_ts"`
}

func (r InvestmentRow) toDomain() domain.Investment {
	return domain.Investment{
		ID:             r.InvestmentID,
		UserID:         r.UserID,
		Name:           r.Name,
		InitialAmount:  fromRat(r.InitialAmount),
		CurrentValue:   fromRat(r.CurrentValue),
		InvestmentDate: r.InvestmentDate,
		UpdatedAt:      r.UpdatedTS,
	}
}

const investmentColumns = `investment_id, user_id, name, initial_amount, current_value, investment_date, updated_ts`

// InvestmentRepository implements repository.InvestmentRepository.
type InvestmentRepository struct {
	db  *DB
	now func() time.Time
}

// NewInvestmentRepository creates a repository on db.
func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db, now: time.Now}
}

func investmentParams(inv domain.Investment) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "id", Value: inv.ID},
		{Name: "user_id", Value: inv.UserID},
		{Name: "name", Value: inv.Name},
		{Name: "initial_amount", Value: toRat(inv.InitialAmount)},
		{Name: "current_value", Value: toRat(inv.CurrentValue)},
		{Name: "investment_date", Value: inv.InvestmentDate},
		{Name: "updated_ts", Value: inv.UpdatedAt},
	}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.UpdatedAt = r.now().UTC()

	if _, err := r.db.exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@id, @user_id, @name, @initial_amount, @current_value, @investment_date, @updated_ts)
	`, r.db.table(investmentsTable), investmentColumns), investmentParams(inv)); err != nil {
		return nil, fmt.Errorf("Create investment: %w", err)
	}
	return &inv, nil
}

func (r *InvestmentRepository) Get(ctx context.Context, userID, id string) (*domain.Investment, error) {
	rows, err := readAll[InvestmentRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id AND investment_id = @id
	`, investmentColumns, r.db.table(investmentsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return nil, fmt.Errorf("Get investment: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}
	inv := rows[0].toDomain()
	return &inv, nil
}

func (r *InvestmentRepository) List(ctx context.Context, userID string) ([]domain.Investment, error) {
	rows, err := readAll[InvestmentRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = @user_id
		ORDER BY name, investment_id
	`, investmentColumns, r.db.table(investmentsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	})
	if err != nil {
		return nil, fmt.Errorf("List investments: %w", err)
	}

	out := make([]domain.Investment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *InvestmentRepository) Update(ctx context.Context, inv domain.Investment) (*domain.Investment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	inv.UpdatedAt = r.now().UTC()

	n, err := r.db.exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET name = @name,
		    initial_amount = @initial_amount,
		    current_value = @current_value,
		    investment_date = @investment_date,
		    updated_ts = @updated_ts
		WHERE user_id = @user_id AND investment_id = @id
	`, r.db.table(investmentsTable)), investmentParams(inv))
	if err != nil {
		return nil, fmt.Errorf("Update investment: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("investment %s: %w", inv.ID, domain.ErrNotFound)
	}
	return &inv, nil
}

func (r *InvestmentRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.db.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = @user_id AND investment_id = @id
	`, r.db.table(investmentsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("Delete investment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("investment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ repository.InvestmentRepository = (*InvestmentRepository)(nil)
