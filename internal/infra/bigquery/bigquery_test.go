package bigquery

import (
	"math/big"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/logger"
	"github.com/dvloznov/spendwise/internal/repository"
	"github.com/shopspring/decimal"
)

func TestTransactionRowRoundTrip(t *testing.T) {
	balance := decimal.RequireFromString("1043.21")
	in := domain.Transaction{
		ID:          "t1",
		UserID:      "u1",
		Date:        civil.Date{Year: 2024, Month: time.March, Day: 5},
		Description: "TESCO STORES",
		Amount:      decimal.RequireFromString("12.34"),
		Direction:   domain.Outflow,
		Category:    "Groceries",
		Balance:     &balance,
		Source:      domain.SourcePDF,
	}

	row := transactionToRow(in)
	if row.Amount.Cmp(big.NewRat(1234, 100)) != 0 {
		t.Errorf("row amount = %s, want 12.34", row.Amount.FloatString(2))
	}
	if got := balanceParam(row.Balance); got != "1043.210000000" {
		t.Errorf("balanceParam() = %q", got)
	}

	out := rowToTransaction(row)
	if !out.Amount.Equal(in.Amount) || out.Balance == nil || !out.Balance.Equal(balance) {
		t.Errorf("round trip amounts = %s / %v", out.Amount, out.Balance)
	}
	if out.Direction != in.Direction || out.Date != in.Date || out.Source != in.Source {
		t.Errorf("round trip = %+v", out)
	}
}

func TestNilBalance(t *testing.T) {
	row := transactionToRow(domain.Transaction{Amount: decimal.NewFromInt(1)})
	if row.Balance != nil || balanceParam(row.Balance) != "" {
		t.Errorf("expected NULL balance, got %v", row.Balance)
	}
	if out := rowToTransaction(row); out.Balance != nil {
		t.Errorf("Balance = %v, want nil", out.Balance)
	}
}

func TestBudgetRowRoundTrip(t *testing.T) {
	in := domain.Budget{
		ID:         "b1",
		UserID:     "u1",
		Month:      "2024-03",
		TotalLimit: decimal.NewFromInt(1500),
		Categories: []domain.CategoryLimit{
			{Category: "Groceries", Limit: decimal.RequireFromString("400.50")},
		},
	}
	out := budgetToRow(in).toDomain()
	if !out.TotalLimit.Equal(in.TotalLimit) || len(out.Categories) != 1 || !out.Categories[0].Limit.Equal(in.Categories[0].Limit) {
		t.Errorf("round trip = %+v", out)
	}
}

func TestFilterClause(t *testing.T) {
	where, params := filterClause(repository.TransactionFilter{
		UserID:    "u1",
		From:      civil.Date{Year: 2024, Month: time.January, Day: 1},
		Category:  "Bills",
		Direction: domain.Inflow,
	})

	for _, want := range []string{"user_id = @user_id", "transaction_date >= @from_date", "category = @category", "direction = @direction"} {
		if !strings.Contains(where, want) {
			t.Errorf("where %q missing %q", where, want)
		}
	}
	if strings.Contains(where, "@to_date") {
		t.Errorf("where %q has an unset upper bound", where)
	}
	if len(params) != 4 {
		t.Errorf("got %d params, want 4", len(params))
	}
}

func TestInsertStatement(t *testing.T) {
	db := NewDB(nil, "proj", "ds")
	repo := NewTransactionRepository(db)
	ts := []domain.Transaction{
		{ID: "a", Amount: decimal.NewFromInt(1)},
		{ID: "b", Amount: decimal.NewFromInt(2)},
	}

	sql, params := repo.insertStatement(ts)

	if !strings.Contains(sql, "INSERT INTO `proj.ds.transactions`") {
		t.Errorf("sql = %s", sql)
	}
	if !strings.Contains(sql, "@id_1") || strings.Contains(sql, "@id_2") {
		t.Errorf("sql has wrong row placeholders: %s", sql)
	}
	if len(params) != 22 {
		t.Errorf("got %d params, want 22", len(params))
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_budgets.sql":      {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.budgets` (x INT64)")},
		"0001_transactions.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (x INT64)")},
		"README.md":             {Data: []byte("notes")},
	}

	migs, err := ReadMigrations(fsys, "proj", "ds", logger.Nop())
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}
	if len(migs) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migs))
	}
	if migs[0].Version != 1 || migs[0].Name != "transactions" {
		t.Errorf("first = %+v", migs[0])
	}
	if !strings.Contains(migs[1].SQL, "`proj.ds.budgets`") {
		t.Errorf("placeholders not replaced: %s", migs[1].SQL)
	}

	again, _ := ReadMigrations(fsys, "other", "dataset", logger.Nop())
	if again[0].Checksum != migs[0].Checksum {
		t.Error("checksum depends on project and dataset")
	}
}

func TestReadMigrationsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := ReadMigrations(fsys, "p", "d", logger.Nop()); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
	}

	t.Run("skips applied", func(t *testing.T) {
		got, err := Pending(all, []AppliedMigration{{Version: 1, Checksum: bigquery.NullString{StringVal: "c1", Valid: true}}})
		if err != nil {
			t.Fatalf("Pending() error = %v", err)
		}
		if len(got) != 1 || got[0].Version != 2 {
			t.Errorf("Pending() = %+v", got)
		}
	})

	t.Run("edited migration", func(t *testing.T) {
		_, err := Pending(all, []AppliedMigration{{Version: 1, Checksum: bigquery.NullString{StringVal: "other", Valid: true}}})
		if err == nil {
			t.Error("expected checksum mismatch error")
		}
	})
}
