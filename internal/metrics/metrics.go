// Package metrics computes the derived views served by the dashboards:
// budget status, spending aggregations, month-over-month change and
// investment performance.
//
// Every function is pure. Zero denominators never produce NaN or Inf; each
// calculator documents the value it uses instead.
package metrics

import (
	"sort"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// round2 rounds money and percentages for output.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentFloat rounds a percentage to 2 decimals and returns it as float64.
func percentFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// CategoryAmount is the total spent in one category.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// spendingByCategory sums outflows per category.
func spendingByCategory(txns []domain.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.IsOutflow() {
			continue
		}
		category := t.Category
		if category == "" {
			category = domain.UncategorizedCategory
		}
		totals[category] = totals[category].Add(t.Amount)
	}
	return totals
}

// sortedAmounts turns category totals into a slice ordered by amount
// descending, then category name.
func sortedAmounts(totals map[string]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for category, amount := range totals {
		out = append(out, CategoryAmount{Category: category, Amount: round2(amount)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CategorySpending sums outflow transactions by category, largest first.
func CategorySpending(txns []domain.Transaction) []CategoryAmount {
	return sortedAmounts(spendingByCategory(txns))
}

// MonthOverMonth returns the percentage change from previous to current,
// rounded to 2 decimals. A previous value of zero yields 0.
func MonthOverMonth(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return round2(current.Sub(previous).Div(previous).Mul(hundred))
}
