package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/rules"
	"github.com/google/uuid"
)

type RuleRow struct {
	RuleID    string    `bigquery:"rule_id"`
	Keyword   string    `bigquery:"keyword"`
	Category  string    `bigquery:"category"`
	Priority  int64     `bigquery:"priority"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

func (r RuleRow) toDomain() domain.CategoryRule {
	return domain.CategoryRule{
		ID:        r.RuleID,
		Keyword:   r.Keyword,
		Category:  r.Category,
		Priority:  int(r.Priority),
		CreatedAt: r.CreatedTS,
	}
}

// RuleRepository implements rules.Store. Keyword uniqueness is enforced by
// conditional DML, so two concurrent creates of the same keyword cannot both
// succeed.
type RuleRepository struct {
	db  *DB
	now func() time.Time
}

// NewRuleRepository creates a repository on db.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db, now: time.Now}
}

// List implements rules.Store.
func (r *RuleRepository) List(ctx context.Context) ([]domain.CategoryRule, error) {
	rows, err := readAll[RuleRow](ctx, r.db, fmt.Sprintf(`
		SELECT rule_id, keyword, category, priority, created_ts
		FROM %s
		ORDER BY priority DESC, keyword
	`, r.db.table(rulesTable)), nil)
	if err != nil {
		return nil, fmt.Errorf("List rules: %w", err)
	}

	out := make([]domain.CategoryRule, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	rules.Sort(out)
	return out, nil
}

// Get implements rules.Store.
func (r *RuleRepository) Get(ctx context.Context, id string) (*domain.CategoryRule, error) {
	rows, err := readAll[RuleRow](ctx, r.db, fmt.Sprintf(`
		SELECT rule_id, keyword, category, priority, created_ts
		FROM %s
		WHERE rule_id = @id
	`, r.db.table(rulesTable)), []bigquery.QueryParameter{{Name: "id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("Get rule: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
	}
	rule := rows[0].toDomain()
	return &rule, nil
}

// Create implements rules.Store.
func (r *RuleRepository) Create(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error) {
	rule, err := rules.Normalize(rule)
	if err != nil {
		return nil, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = r.now().UTC()
	}

	n, err := r.db.exec(ctx, fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @keyword AS keyword) S
		ON T.keyword = S.keyword
		WHEN NOT MATCHED THEN
		  INSERT (rule_id, keyword, category, priority, created_ts)
		  VALUES (@id, @keyword, @category, @priority, @created_ts)
	`, r.db.table(rulesTable)), []bigquery.QueryParameter{
		{Name: "id", Value: rule.ID},
		{Name: "keyword", Value: rule.Keyword},
		{Name: "category", Value: rule.Category},
		{Name: "priority", Value: rule.Priority},
		{Name: "created_ts", Value: rule.CreatedAt},
	})
	if err != nil {
		return nil, fmt.Errorf("Create rule: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("keyword %q: %w", rule.Keyword, domain.ErrDuplicate)
	}
	return &rule, nil
}

// Update implements rules.Store.
func (r *RuleRepository) Update(ctx context.Context, rule domain.CategoryRule) (*domain.CategoryRule, error) {
	rule, err := rules.Normalize(rule)
	if err != nil {
		return nil, err
	}
	if _, err := r.Get(ctx, rule.ID); err != nil {
		return nil, err
	}

	n, err := r.db.exec(ctx, fmt.Sprintf(`
		UPDATE %[1]s
		SET keyword = @keyword, category = @category, priority = @priority
		WHERE rule_id = @id
		  AND NOT EXISTS (
		    SELECT 1 FROM %[1]s WHERE keyword = @keyword AND rule_id != @id
		  )
	`, r.db.table(rulesTable)), []bigquery.QueryParameter{
		{Name: "id", Value: rule.ID},
		{Name: "keyword", Value: rule.Keyword},
		{Name: "category", Value: rule.Category},
		{Name: "priority", Value: rule.Priority},
	})
	if err != nil {
		return nil, fmt.Errorf("Update rule: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("keyword %q: %w", rule.Keyword, domain.ErrDuplicate)
	}
	return r.Get(ctx, rule.ID)
}

// Delete implements rules.Store.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	n, err := r.db.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE rule_id = @id`, r.db.table(rulesTable)),
		[]bigquery.QueryParameter{{Name: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("Delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ rules.Store = (*RuleRepository)(nil)
