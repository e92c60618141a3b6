package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

const daysPerYear = 365.25

var tenThousand = decimal.NewFromInt(10000)

// GainLoss returns CurrentValue minus InitialAmount.
func GainLoss(inv domain.Investment) decimal.Decimal {
	return inv.CurrentValue.Sub(inv.InitialAmount)
}

// GainLossPercent returns the gain or loss relative to InitialAmount, in
// percent. It is 0 when nothing was invested.
func GainLossPercent(inv domain.Investment) decimal.Decimal {
	if inv.InitialAmount.IsZero() {
		return decimal.Zero
	}
	return round2(GainLoss(inv).Div(inv.InitialAmount).Mul(hundred))
}

// CAGR returns the compound annual growth rate as a fraction, so 0.25 means
// 25% a year. It is 0 when nothing was invested or when the investment date
// is not before now.
func CAGR(inv domain.Investment, now time.Time) float64 {
	if !inv.InitialAmount.IsPositive() {
		return 0
	}
	years := now.Sub(inv.InvestmentDate.In(time.UTC)).Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}
	ratio := inv.CurrentValue.Div(inv.InitialAmount).InexactFloat64()
	rate := math.Pow(ratio, 1/years) - 1
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// CAGRPercent returns CAGR in percent rounded to 2 decimals.
func CAGRPercent(inv domain.Investment, now time.Time) decimal.Decimal {
	return round2(decimal.NewFromFloat(CAGR(inv, now) * 100))
}

// AllocationShare is the weight of one investment in the portfolio.
type AllocationShare struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// Allocation returns each investment's share of the total current value.
// Shares are rounded to 2 decimals with the largest remainder method, so
// they always add up to exactly 100 when the total is positive. All shares
// are 0 when the total is not positive.
func Allocation(invs []domain.Investment) []AllocationShare {
	total := decimal.Zero
	for _, inv := range invs {
		total = total.Add(inv.CurrentValue)
	}

	out := make([]AllocationShare, 0, len(invs))
	for _, inv := range invs {
		out = append(out, AllocationShare{
			ID:           inv.ID,
			Name:         inv.Name,
			CurrentValue: round2(inv.CurrentValue),
			Percentage:   decimal.Zero,
		})
	}
	if !total.IsPositive() || len(invs) == 0 {
		return out
	}

	// Work in hundredths of a percent: floor every share, then hand the
	// missing units to the largest remainders. Ties go to the earlier entry.
	units := make([]int64, len(invs))
	remainders := make([]decimal.Decimal, len(invs))
	left := int64(10000)
	for i, inv := range invs {
		exact := inv.CurrentValue.Div(total).Mul(tenThousand)
		floor := exact.Floor()
		units[i] = floor.IntPart()
		remainders[i] = exact.Sub(floor)
		left -= units[i]
	}
	order := make([]int, len(invs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for k := 0; left > 0 && k < len(order); k++ {
		units[order[k]]++
		left--
	}

	for i := range out {
		out[i].Percentage = decimal.New(units[i], -2)
	}
	return out
}

// Holding is one investment with its derived performance.
type Holding struct {
	domain.Investment
	GainLoss             decimal.Decimal `json:"gainLoss"`
	GainLossPercent      decimal.Decimal `json:"gainLossPercent"`
	CAGR                 decimal.Decimal `json:"cagr"`
	AllocationPercentage decimal.Decimal `json:"allocationPercentage"`
}

// PortfolioReport aggregates the investments of a user.
type PortfolioReport struct {
	TotalInvested        decimal.Decimal `json:"totalInvested"`
	TotalCurrentValue    decimal.Decimal `json:"totalCurrentValue"`
	TotalGainLoss        decimal.Decimal `json:"totalGainLoss"`
	TotalGainLossPercent decimal.Decimal `json:"totalGainLossPercent"`
	Holdings             []Holding       `json:"investments"`
}

// Portfolio computes totals and per-holding metrics as of now.
func Portfolio(invs []domain.Investment, now time.Time) PortfolioReport {
	report := PortfolioReport{
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		Holdings:          make([]Holding, 0, len(invs)),
	}
	shares := Allocation(invs)
	for i, inv := range invs {
		report.TotalInvested = report.TotalInvested.Add(inv.InitialAmount)
		report.TotalCurrentValue = report.TotalCurrentValue.Add(inv.CurrentValue)
		report.Holdings = append(report.Holdings, Holding{
			Investment:           inv,
			GainLoss:             round2(GainLoss(inv)),
			GainLossPercent:      GainLossPercent(inv),
			CAGR:                 CAGRPercent(inv, now),
			AllocationPercentage: shares[i].Percentage,
		})
	}

	gain := report.TotalCurrentValue.Sub(report.TotalInvested)
	report.TotalGainLoss = round2(gain)
	report.TotalGainLossPercent = decimal.Zero
	if report.TotalInvested.IsPositive() {
		report.TotalGainLossPercent = round2(gain.Div(report.TotalInvested).Mul(hundred))
	}
	report.TotalInvested = round2(report.TotalInvested)
	report.TotalCurrentValue = round2(report.TotalCurrentValue)
	return report
}
