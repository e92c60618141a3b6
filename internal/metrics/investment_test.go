package metrics

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

func investment(initial, current string, invested civil.Date) domain.Investment {
	return domain.Investment{
		ID:             "inv-" + current,
		Name:           "Fund " + current,
		InitialAmount:  dec(initial),
		CurrentValue:   dec(current),
		InvestmentDate: invested,
	}
}

func TestCAGR(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	oneYearAgo := civil.Date{Year: 2024, Month: time.January, Day: 1}

	tests := []struct {
		name    string
		inv     domain.Investment
		want    float64
		epsilon float64
	}{
		{name: "one year 25 percent", inv: investment("10000", "12500", oneYearAgo), want: 0.25, epsilon: 0.005},
		{name: "flat", inv: investment("10000", "10000", oneYearAgo), want: 0, epsilon: 1e-9},
		{name: "two years doubling", inv: investment("100", "200", civil.Date{Year: 2023, Month: time.January, Day: 1}), want: math.Sqrt2 - 1, epsilon: 0.005},
		{name: "zero initial", inv: investment("0", "500", oneYearAgo), want: 0, epsilon: 1e-9},
		{name: "future date", inv: investment("100", "200", civil.Date{Year: 2026, Month: time.January, Day: 1}), want: 0, epsilon: 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CAGR(tt.inv, now)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("CAGR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCAGRPercent(t *testing.T) {
	invested := civil.Date{Year: 2024, Month: time.January, Day: 1}
	// Exactly one average year, so the leap day in 2024 does not skew the rate.
	now := invested.In(time.UTC).Add(time.Duration(daysPerYear*24) * time.Hour)
	inv := investment("10000", "12500", invested)

	got := CAGRPercent(inv, now)
	if !got.Equal(dec("25")) {
		t.Errorf("CAGRPercent() = %v, want 25", got)
	}
	if !CAGRPercent(inv, now).Equal(CAGRPercent(inv, now).Round(2)) {
		t.Error("CAGRPercent() is not rounded to 2 decimals")
	}
}

func TestAllocation(t *testing.T) {
	invested := civil.Date{Year: 2024, Month: time.January, Day: 1}

	t.Run("shares sum to 100", func(t *testing.T) {
		got := Allocation([]domain.Investment{
			investment("10000", "12500", invested),
			investment("20000", "22000", invested),
		})
		if !got[0].Percentage.Equal(dec("36.23")) || !got[1].Percentage.Equal(dec("63.77")) {
			t.Errorf("Allocation() = %+v", got)
		}
		sum := got[0].Percentage.Add(got[1].Percentage)
		if !sum.Equal(dec("100")) {
			t.Errorf("sum = %s, want 100", sum)
		}
	})

	t.Run("equal holdings still sum to exactly 100", func(t *testing.T) {
		for n := 1; n <= 12; n++ {
			invs := make([]domain.Investment, n)
			for i := range invs {
				invs[i] = investment("100", "100", invested)
			}
			sum := decimal.Zero
			for _, s := range Allocation(invs) {
				sum = sum.Add(s.Percentage)
			}
			if !sum.Equal(dec("100")) {
				t.Errorf("n=%d: sum = %s, want 100", n, sum)
			}
		}
	})

	t.Run("largest remainder gets the extra unit", func(t *testing.T) {
		got := Allocation([]domain.Investment{
			investment("1", "1", invested),
			investment("1", "1", invested),
			investment("1", "1", invested),
		})
		want := []string{"33.34", "33.33", "33.33"}
		for i, s := range got {
			if !s.Percentage.Equal(dec(want[i])) {
				t.Errorf("share[%d] = %s, want %s", i, s.Percentage, want[i])
			}
		}

		got = Allocation([]domain.Investment{
			investment("1", "1", invested),
			investment("1", "2", invested),
			investment("1", "4", invested),
		})
		want = []string{"14.29", "28.57", "57.14"}
		for i, s := range got {
			if !s.Percentage.Equal(dec(want[i])) {
				t.Errorf("share[%d] = %s, want %s", i, s.Percentage, want[i])
			}
		}
	})

	t.Run("zero total", func(t *testing.T) {
		got := Allocation([]domain.Investment{
			investment("100", "0", invested),
			investment("100", "0", invested),
		})
		for _, s := range got {
			if !s.Percentage.IsZero() {
				t.Errorf("share = %s, want 0", s.Percentage)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := Allocation(nil); len(got) != 0 {
			t.Errorf("Allocation(nil) = %+v", got)
		}
	})
}

func TestPortfolio(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	invested := civil.Date{Year: 2024, Month: time.January, Day: 1}

	report := Portfolio([]domain.Investment{
		investment("10000", "12500", invested),
		investment("20000", "22000", invested),
	}, now)

	if !report.TotalInvested.Equal(dec("30000")) || !report.TotalCurrentValue.Equal(dec("34500")) {
		t.Errorf("totals = %s / %s", report.TotalInvested, report.TotalCurrentValue)
	}
	if !report.TotalGainLoss.Equal(dec("4500")) || !report.TotalGainLossPercent.Equal(dec("15")) {
		t.Errorf("gain = %s (%s%%)", report.TotalGainLoss, report.TotalGainLossPercent)
	}
	if len(report.Holdings) != 2 {
		t.Fatalf("got %d holdings, want 2", len(report.Holdings))
	}
	h := report.Holdings[0]
	if !h.GainLoss.Equal(dec("2500")) || !h.GainLossPercent.Equal(dec("25")) || !h.AllocationPercentage.Equal(dec("36.23")) {
		t.Errorf("holding = %+v", h)
	}
}

func TestPortfolioEmpty(t *testing.T) {
	report := Portfolio(nil, time.Now())
	if !report.TotalGainLossPercent.Equal(decimal.Zero) || len(report.Holdings) != 0 {
		t.Errorf("Portfolio(nil) = %+v", report)
	}
}

func TestGainLoss(t *testing.T) {
	inv := investment("1000", "850", civil.Date{Year: 2024, Month: time.June, Day: 1})
	if got := GainLoss(inv); !got.Equal(dec("-150")) {
		t.Errorf("GainLoss() = %s, want -150", got)
	}
	if got := GainLossPercent(inv); !got.Equal(dec("-15")) {
		t.Errorf("GainLossPercent() = %s, want -15", got)
	}
}
