package metrics

import (
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

// MonthAmount is spending for one month.
type MonthAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthIncomeExpense is the income and expense of one month.
type MonthIncomeExpense struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type monthTotals struct {
	income, expense decimal.Decimal
}

func totalsByMonth(txns []domain.Transaction) map[string]*monthTotals {
	out := make(map[string]*monthTotals)
	for _, t := range txns {
		key := dates.DateMonthKey(t.Date)
		mt, ok := out[key]
		if !ok {
			mt = &monthTotals{}
			out[key] = mt
		}
		if t.IsOutflow() {
			mt.expense = mt.expense.Add(t.Amount)
		} else {
			mt.income = mt.income.Add(t.Amount)
		}
	}
	return out
}

// MonthlyTrends returns outflow per month for every key in window, in window
// order. Months without transactions are present with a zero amount;
// transactions outside the window are ignored.
func MonthlyTrends(txns []domain.Transaction, window []string) []MonthAmount {
	totals := totalsByMonth(txns)
	out := make([]MonthAmount, 0, len(window))
	for _, month := range window {
		amount := decimal.Zero
		if mt, ok := totals[month]; ok {
			amount = mt.expense
		}
		out = append(out, MonthAmount{Month: month, Amount: round2(amount)})
	}
	return out
}

// IncomeVsExpense returns income, expense and net per month of window,
// zero-filled like MonthlyTrends.
func IncomeVsExpense(txns []domain.Transaction, window []string) []MonthIncomeExpense {
	totals := totalsByMonth(txns)
	out := make([]MonthIncomeExpense, 0, len(window))
	for _, month := range window {
		row := MonthIncomeExpense{Month: month, Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
		if mt, ok := totals[month]; ok {
			row.Income = round2(mt.income)
			row.Expense = round2(mt.expense)
			row.Net = round2(mt.income.Sub(mt.expense))
		}
		out = append(out, row)
	}
	return out
}
