package metrics

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/dates"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// MonthlyCost returns what the subscriptions cost per month. Yearly
// subscriptions count at a twelfth of their amount.
func MonthlyCost(subs []domain.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subs {
		if s.Cycle == domain.CycleYearly {
			total = total.Add(s.Amount.Div(monthsPerYear))
			continue
		}
		total = total.Add(s.Amount)
	}
	return round2(total)
}

// UpcomingRenewals returns the subscriptions renewing within the given number
// of days after now, ordered by renewal date then name. NextRenewalDate is
// recomputed as of now on the returned copies.
func UpcomingRenewals(subs []domain.Subscription, now time.Time, within int) []domain.Subscription {
	today := civil.DateOf(now)
	limit := today.AddDays(within)

	var out []domain.Subscription
	for _, s := range subs {
		s.NextRenewalDate = dates.NextRenewal(s.StartDate, s.Cycle, now)
		if s.NextRenewalDate.After(limit) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextRenewalDate != out[j].NextRenewalDate {
			return out[i].NextRenewalDate.Before(out[j].NextRenewalDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
