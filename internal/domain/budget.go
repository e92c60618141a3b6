package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CategoryLimit is the spending cap for one category within a Budget.
type CategoryLimit struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
}

// Budget is the spending plan of a user for one calendar month.
// There is at most one budget per (UserID, Month).
type Budget struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Month      string          `json:"month"`
	TotalLimit decimal.Decimal `json:"totalBudget"`
	Categories []CategoryLimit `json:"categoryBudgets"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Investment is a user-tracked holding. CurrentValue is entered by the user
// and never re-priced automatically.
type Investment struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Name           string          `json:"name"`
	InitialAmount  decimal.Decimal `json:"initialAmount"`
	CurrentValue   decimal.Decimal `json:"currentValue"`
	InvestmentDate civil.Date      `json:"investmentDate"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Cycle is how often a subscription renews.
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleYearly  Cycle = "yearly"
)

// Subscription is a recurring charge. NextRenewalDate is derived from
// StartDate and Cycle and is always after the moment it was computed.
type Subscription struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Cycle           Cycle           `json:"billingCycle"`
	StartDate       civil.Date      `json:"startDate"`
	NextRenewalDate civil.Date      `json:"nextRenewalDate"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Validate checks the month key and that no limit is negative.
func (b Budget) Validate() error {
	if !monthPattern.MatchString(b.Month) {
		return fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidInput)
	}
	if b.TotalLimit.IsNegative() {
		return fmt.Errorf("%w: total budget must not be negative", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		if strings.TrimSpace(c.Category) == "" {
			return fmt.Errorf("%w: category budget needs a category", ErrInvalidInput)
		}
		if c.Limit.IsNegative() {
			return fmt.Errorf("%w: limit for %s must not be negative", ErrInvalidInput, c.Category)
		}
		if seen[c.Category] {
			return fmt.Errorf("%w: category %s listed twice", ErrInvalidInput, c.Category)
		}
		seen[c.Category] = true
	}
	return nil
}

// Validate checks the name, the amounts and the date.
func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if i.InitialAmount.IsNegative() || i.CurrentValue.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	if !i.InvestmentDate.IsValid() {
		return fmt.Errorf("%w: invalid investment date", ErrInvalidInput)
	}
	return nil
}

// Validate checks the name, amount, cycle and start date.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if s.Cycle != CycleMonthly && s.Cycle != CycleYearly {
		return fmt.Errorf("%w: billing cycle must be monthly or yearly", ErrInvalidInput)
	}
	if !s.StartDate.IsValid() {
		return fmt.Errorf("%w: invalid start date", ErrInvalidInput)
	}
	return nil
}
