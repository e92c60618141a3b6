package metrics

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
)

func TestMonthlyCost(t *testing.T) {
	subs := []domain.Subscription{
		{Name: "Music", Amount: dec("9.99"), Cycle: domain.CycleMonthly},
		{Name: "Cloud", Amount: dec("120"), Cycle: domain.CycleYearly},
	}
	if got := MonthlyCost(subs); !got.Equal(dec("19.99")) {
		t.Errorf("MonthlyCost() = %s, want 19.99", got)
	}
}

func TestUpcomingRenewals(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	subs := []domain.Subscription{
		{Name: "Video", Cycle: domain.CycleMonthly, StartDate: civil.Date{Year: 2024, Month: time.January, Day: 15}},
		{Name: "Music", Cycle: domain.CycleMonthly, StartDate: civil.Date{Year: 2023, Month: time.November, Day: 12}},
		{Name: "Domain", Cycle: domain.CycleYearly, StartDate: civil.Date{Year: 2023, Month: time.June, Day: 1}},
	}

	got := UpcomingRenewals(subs, now, 7)

	if len(got) != 2 {
		t.Fatalf("got %d renewals, want 2: %+v", len(got), got)
	}
	if got[0].Name != "Music" || got[0].NextRenewalDate != (civil.Date{Year: 2024, Month: time.March, Day: 12}) {
		t.Errorf("first = %s on %s", got[0].Name, got[0].NextRenewalDate)
	}
	if got[1].Name != "Video" || got[1].NextRenewalDate != (civil.Date{Year: 2024, Month: time.March, Day: 15}) {
		t.Errorf("second = %s on %s", got[1].Name, got[1].NextRenewalDate)
	}
}
