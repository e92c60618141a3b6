package metrics

import (
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

// Budget thresholds in percent of the limit.
var (
	warningThreshold  = decimal.NewFromInt(80)
	exceededThreshold = decimal.NewFromInt(100)
)

// BudgetLine is the status of one limit.
type BudgetLine struct {
	Category       string          `json:"category,omitempty"`
	Limit          decimal.Decimal `json:"limit"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed float64         `json:"percentageUsed"`
	Warning        bool            `json:"warning"`
	Exceeded       bool            `json:"exceeded"`
}

// BudgetReport is the status of a monthly budget.
type BudgetReport struct {
	Month            string           `json:"month"`
	Total            BudgetLine       `json:"total"`
	Categories       []BudgetLine     `json:"categoryBudgets"`
	CategorySpending []CategoryAmount `json:"categorySpending"`
	TransactionCount int              `json:"transactionCount"`
}

// BudgetStatus compares the outflows of budget.Month against the budget.
// Transactions outside the month and inflows are ignored.
//
// A zero limit with no spending reports 0%. A zero limit with spending
// reports 100% and Exceeded.
func BudgetStatus(budget domain.Budget, txns []domain.Transaction) BudgetReport {
	var monthly []domain.Transaction
	from, to, err := dates.MonthBounds(budget.Month)
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		if err == nil && !dates.InRange(t.Date, from, to) {
			continue
		}
		monthly = append(monthly, t)
	}

	totals := spendingByCategory(monthly)
	spent := decimal.Zero
	for _, amount := range totals {
		spent = spent.Add(amount)
	}

	report := BudgetReport{
		Month:            budget.Month,
		Total:            budgetLine("", budget.TotalLimit, spent),
		Categories:       make([]BudgetLine, 0, len(budget.Categories)),
		CategorySpending: sortedAmounts(totals),
		TransactionCount: len(monthly),
	}
	for _, cl := range budget.Categories {
		report.Categories = append(report.Categories, budgetLine(cl.Category, cl.Limit, totals[cl.Category]))
	}
	return report
}

// budgetLine derives the flags from the exact percentage, not from the
// rounded PercentageUsed. A line at 99.999% reports 100 but is only a
// warning, not exceeded.
func budgetLine(category string, limit, spent decimal.Decimal) BudgetLine {
	remaining := limit.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	var pct decimal.Decimal
	switch {
	case limit.IsPositive():
		pct = spent.Div(limit).Mul(hundred)
	case spent.IsPositive():
		pct = exceededThreshold
	default:
		pct = decimal.Zero
	}

	return BudgetLine{
		Category:       category,
		Limit:          round2(limit),
		Spent:          round2(spent),
		Remaining:      round2(remaining),
		PercentageUsed: percentFloat(pct),
		Warning:        pct.GreaterThanOrEqual(warningThreshold) && pct.LessThan(exceededThreshold),
		Exceeded:       pct.GreaterThanOrEqual(exceededThreshold),
	}
}
