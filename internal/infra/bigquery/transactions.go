package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/google/uuid"
)

// insertChunk bounds the rows per INSERT statement, keeping each statement
// well under the query parameter limit.
const insertChunk = 200

type TransactionRow struct {
	TransactionID   string     `bigquery:"transaction_id"`   // REQUIRED
	UserID          string     `bigquery:"user_id"`          // REQUIRED
	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Description string   `bigquery:"description"` // REQUIRED
	Amount      *big.Rat `bigquery:"amount"`      // REQUIRED NUMERIC, > 0
	Direction   string   `bigquery:"direction"`   // REQUIRED inflow|outflow
	Category    string   `bigquery:"category"`    // REQUIRED
	Balance     *big.Rat `bigquery:"balance"`     // NULLABLE NUMERIC
	Source      string   `bigquery:"source"`      // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

const transactionColumns = `
	transaction_id, user_id, transaction_date, description, amount,
	direction, category, balance, source, created_ts, updated_ts`

func transactionToRow(t domain.Transaction) TransactionRow {
	row := TransactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		TransactionDate: t.Date,
		Description:     t.Description,
		Amount:          toRat(t.Amount),
		Direction:       string(t.Direction),
		Category:        t.Category,
		Source:          string(t.Source),
		CreatedTS:       t.CreatedAt,
		UpdatedTS:       t.UpdatedAt,
	}
	if t.Balance != nil {
		row.Balance = toRat(*t.Balance)
	}
	return row
}

func rowToTransaction(r TransactionRow) domain.Transaction {
	t := domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Date:        r.TransactionDate,
		Description: r.Description,
		Amount:      fromRat(r.Amount),
		Direction:   domain.Direction(r.Direction),
		Category:    r.Category,
		Source:      domain.Source(r.Source),
		CreatedAt:   r.CreatedTS,
		UpdatedAt:   r.UpdatedTS,
	}
	if r.Balance != nil {
		b := fromRat(r.Balance)
		t.Balance = &b
	}
	return t
}

// balanceParam encodes the nullable balance as a string, turned back into
// NUMERIC or NULL by the statement.
func balanceParam(r *big.Rat) string {
	if r == nil {
		return ""
	}
	return r.FloatString(numericScale)
}

// TransactionRepository implements repository.TransactionRepository.
type TransactionRepository struct {
	db  *DB
	now func() time.Time
}

// NewTransactionRepository creates a repository on db.
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db, now: time.Now}
}

func (r *TransactionRepository) prepare(t domain.Transaction) domain.Transaction {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return t
}

// Insert implements repository.TransactionRepository.
func (r *TransactionRepository) Insert(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	batch := []domain.Transaction{t}
	if err := r.InsertBatch(ctx, batch); err != nil {
		return nil, err
	}
	return &batch[0], nil
}

// InsertBatch implements repository.TransactionRepository.
func (r *TransactionRepository) InsertBatch(ctx context.Context, ts []domain.Transaction) error {
	for i := range ts {
		if err := ts[i].Validate(); err != nil {
			return fmt.Errorf("InsertBatch: transaction %d: %w", i, err)
		}
		ts[i] = r.prepare(ts[i])
	}

	for start := 0; start < len(ts); start += insertChunk {
		end := start + insertChunk
		if end > len(ts) {
			end = len(ts)
		}
		sql, params := r.insertStatement(ts[start:end])
		if _, err := r.db.exec(ctx, sql, params); err != nil {
			return fmt.Errorf("InsertBatch: rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// insertStatement builds one multi-row INSERT with positional suffixes on the
// parameter names.
func (r *TransactionRepository) insertStatement(ts []domain.Transaction) (string, []bigquery.QueryParameter) {
	values := make([]string, 0, len(ts))
	params := make([]bigquery.QueryParameter, 0, len(ts)*11)
	for i, t := range ts {
		row := transactionToRow(t)
		values = append(values, fmt.Sprintf(
			"(@id_%[1]d, @user_%[1]d, @date_%[1]d, @desc_%[1]d, @amount_%[1]d, @dir_%[1]d, @cat_%[1]d, CAST(NULLIF(@bal_%[1]d, '') AS NUMERIC), @src_%[1]d, @created_%[1]d, @updated_%[1]d)", i))
		params = append(params,
			bigquery.QueryParameter{Name: fmt.Sprintf("id_%d", i), Value: row.TransactionID},
			bigquery.QueryParameter{Name: fmt.Sprintf("user_%d", i), Value: row.UserID},
			bigquery.QueryParameter{Name: fmt.Sprintf("date_%d", i), Value: row.TransactionDate},
			bigquery.QueryParameter{Name: fmt.Sprintf("desc_%d", i), Value: row.Description},
			bigquery.QueryParameter{Name: fmt.Sprintf("amount_%d", i), Value: row.Amount},
			bigquery.QueryParameter{Name: fmt.Sprintf("dir_%d", i), Value: row.Direction},
			bigquery.QueryParameter{Name: fmt.Sprintf("cat_%d", i), Value: row.Category},
			bigquery.QueryParameter{Name: fmt.Sprintf("bal_%d", i), Value: balanceParam(row.Balance)},
			bigquery.QueryParameter{Name: fmt.Sprintf("src_%d", i), Value: row.Source},
			bigquery.QueryParameter{Name: fmt.Sprintf("created_%d", i), Value: row.CreatedTS},
			bigquery.QueryParameter{Name: fmt.Sprintf("updated_%d", i), Value: row.UpdatedTS},
		)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s)\nVALUES\n%s",
		r.db.table(transactionsTable), transactionColumns, strings.Join(values, ",\n"))
	return sql, params
}

// Get implements repository.TransactionRepository.
func (r *TransactionRepository) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	rows, err := readAll[TransactionRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = @user_id AND transaction_id = @id
		LIMIT 1
	`, transactionColumns, r.db.table(transactionsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return nil, fmt.Errorf("Get transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	t := rowToTransaction(rows[0])
	return &t, nil
}

// Update implements repository.TransactionRepository.
func (r *TransactionRepository) Update(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = r.now().UTC()
	row := transactionToRow(t)

	n, err := r.db.exec(ctx, fmt.Sprintf(`
		UPDATE %s
		SET transaction_date = @date,
		    description = @description,
		    amount = @amount,
		    direction = @direction,
		    category = @category,
		    balance = CAST(NULLIF(@balance, '') AS NUMERIC),
		    updated_ts = @updated_ts
		WHERE user_id = @user_id AND transaction_id = @id
	`, r.db.table(transactionsTable)), []bigquery.QueryParameter{
		{Name: "date", Value: row.TransactionDate},
		{Name: "description", Value: row.Description},
		{Name: "amount", Value: row.Amount},
		{Name: "direction", Value: row.Direction},
		{Name: "category", Value: row.Category},
		{Name: "balance", Value: balanceParam(row.Balance)},
		{Name: "updated_ts", Value: row.UpdatedTS},
		{Name: "user_id", Value: row.UserID},
		{Name: "id", Value: row.TransactionID},
	})
	if err != nil {
		return nil, fmt.Errorf("Update transaction: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, domain.ErrNotFound)
	}
	return r.Get(ctx, t.UserID, t.ID)
}

// Delete implements repository.TransactionRepository.
func (r *TransactionRepository) Delete(ctx context.Context, userID, id string) error {
	n, err := r.db.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = @user_id AND transaction_id = @id
	`, r.db.table(transactionsTable)), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "id", Value: id},
	})
	if err != nil {
		return fmt.Errorf("Delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// filterClause turns a filter into a WHERE clause and its parameters.
func filterClause(f repository.TransactionFilter) (string, []bigquery.QueryParameter) {
	conds := []string{"user_id = @user_id"}
	params := []bigquery.QueryParameter{{Name: "user_id", Value: f.UserID}}
	if !f.From.IsZero() {
		conds = append(conds, "transaction_date >= @from_date")
		params = append(params, bigquery.QueryParameter{Name: "from_date", Value: f.From})
	}
	if !f.To.IsZero() {
		conds = append(conds, "transaction_date <= @to_date")
		params = append(params, bigquery.QueryParameter{Name: "to_date", Value: f.To})
	}
	if f.Category != "" {
		conds = append(conds, "category = @category")
		params = append(params, bigquery.QueryParameter{Name: "category", Value: f.Category})
	}
	if f.Direction != "" {
		conds = append(conds, "direction = @direction")
		params = append(params, bigquery.QueryParameter{Name: "direction", Value: string(f.Direction)})
	}
	return strings.Join(conds, " AND "), params
}

// List implements repository.TransactionRepository.
func (r *TransactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, int, error) {
	filter = filter.Normalize()
	where, params := filterClause(filter)

	counts, err := readAll[struct {
		Total int64 `bigquery:"total"`
	}](ctx, r.db, fmt.Sprintf(`SELECT COUNT(*) AS total FROM %s WHERE %s`, r.db.table(transactionsTable), where), params)
	if err != nil {
		return nil, 0, fmt.Errorf("List transactions: counting: %w", err)
	}
	total := 0
	if len(counts) > 0 {
		total = int(counts[0].Total)
	}

	pageParams := append(append([]bigquery.QueryParameter(nil), params...),
		bigquery.QueryParameter{Name: "limit", Value: filter.Limit},
		bigquery.QueryParameter{Name: "offset", Value: filter.Offset()},
	)
	rows, err := readAll[TransactionRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY transaction_date DESC, created_ts DESC, transaction_id
		LIMIT @limit OFFSET @offset
	`, transactionColumns, r.db.table(transactionsTable), where), pageParams)
	if err != nil {
		return nil, 0, fmt.Errorf("List transactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToTransaction(row))
	}
	return out, total, nil
}

// ListRange implements repository.TransactionRepository.
func (r *TransactionRepository) ListRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.Transaction, error) {
	where, params := filterClause(repository.TransactionFilter{UserID: userID, From: from, To: to})
	rows, err := readAll[TransactionRow](ctx, r.db, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY transaction_date, created_ts
	`, transactionColumns, r.db.table(transactionsTable), where), params)
	if err != nil {
		return nil, fmt.Errorf("ListRange transactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToTransaction(row))
	}
	return out, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
