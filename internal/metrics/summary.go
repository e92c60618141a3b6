package metrics

import (
	"time"

	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

// Summary is the overview of one month of activity.
type Summary struct {
	Month                string           `json:"month"`
	TotalSpending        decimal.Decimal  `json:"totalSpending"`
	TotalIncome          decimal.Decimal  `json:"totalIncome"`
	NetBalance           decimal.Decimal  `json:"netBalance"`
	CategorySpending     []CategoryAmount `json:"categorySpending"`
	WeekdaySpending      decimal.Decimal  `json:"weekdaySpending"`
	WeekendSpending      decimal.Decimal  `json:"weekendSpending"`
	PreviousSpending     decimal.Decimal  `json:"previousMonthSpending"`
	MonthOverMonthChange decimal.Decimal  `json:"monthOverMonthChange"`
	TransactionCount     int              `json:"transactionCount"`
}

// MonthlySummary builds the summary of month from its transactions and the
// previous month's total spending. Transactions outside month are ignored.
func MonthlySummary(month string, txns []domain.Transaction, previousSpending decimal.Decimal) (Summary, error) {
	from, to, err := dates.MonthBounds(month)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Month:            month,
		TotalSpending:    decimal.Zero,
		TotalIncome:      decimal.Zero,
		WeekdaySpending:  decimal.Zero,
		WeekendSpending:  decimal.Zero,
		PreviousSpending: round2(previousSpending),
	}
	var inMonth []domain.Transaction
	for _, t := range txns {
		if !dates.InRange(t.Date, from, to) {
			continue
		}
		inMonth = append(inMonth, t)
		if !t.IsOutflow() {
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			continue
		}
		s.TotalSpending = s.TotalSpending.Add(t.Amount)
		switch t.Date.In(time.UTC).Weekday() {
		case time.Saturday, time.Sunday:
			s.WeekendSpending = s.WeekendSpending.Add(t.Amount)
		default:
			s.WeekdaySpending = s.WeekdaySpending.Add(t.Amount)
		}
	}

	s.MonthOverMonthChange = MonthOverMonth(s.TotalSpending, previousSpending)
	s.NetBalance = round2(s.TotalIncome.Sub(s.TotalSpending))
	s.TotalSpending = round2(s.TotalSpending)
	s.TotalIncome = round2(s.TotalIncome)
	s.WeekdaySpending = round2(s.WeekdaySpending)
	s.WeekendSpending = round2(s.WeekendSpending)
	s.CategorySpending = CategorySpending(inMonth)
	s.TransactionCount = len(inMonth)
	return s, nil
}

// TotalSpending sums the outflows of txns.
func TotalSpending(txns []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.IsOutflow() {
			total = total.Add(t.Amount)
		}
	}
	return total
}
