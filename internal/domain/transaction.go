package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Direction tells whether money entered or left the account.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// ParseDirection accepts the canonical names plus the credit/debit aliases
// used by bank statements and older clients.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inflow", "credit", "cr", "income":
		return Inflow, nil
	case "outflow", "debit", "dr", "expense":
		return Outflow, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, s)
}

// UnmarshalText lets JSON and form decoding go through ParseDirection.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Source records how a transaction entered the system.
type Source string

const (
	SourceManual Source = "manual"
	SourcePDF    Source = "pdf"
	SourceCSV    Source = "csv"
)

// UncategorizedCategory is assigned when no rule matches a description.
const UncategorizedCategory = "Uncategorized"

// Transaction is a stored, categorized money movement. Amount is always
// positive; Direction carries the sign.
type Transaction struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Date        civil.Date       `json:"date"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Direction   Direction        `json:"type"`
	Category    string           `json:"category"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Source      Source           `json:"source"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// IsOutflow reports whether the transaction counts as spending.
func (t Transaction) IsOutflow() bool {
	return t.Direction == Outflow
}

// Validate checks the invariants every stored transaction must hold.
func (t Transaction) Validate() error {
	if !t.Date.IsValid() {
		return fmt.Errorf("%w: invalid date", ErrInvalidInput)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if t.Direction != Inflow && t.Direction != Outflow {
		return fmt.Errorf("%w: direction must be inflow or outflow", ErrInvalidInput)
	}
	return nil
}

// Candidate is a transaction extracted from a statement before it has been
// validated, categorized or persisted.
type Candidate struct {
	Date        civil.Date
	Description string
	Amount      decimal.Decimal
	Direction   Direction
	Balance     *decimal.Decimal
	// Line is the 1-based statement line (PDF) or data row (CSV).
	Line int
}

// ToTransaction turns a categorized candidate into a transaction owned by userID.
func (c Candidate) ToTransaction(userID, category string, source Source, now time.Time) Transaction {
	if category == "" {
		category = UncategorizedCategory
	}
	return Transaction{
		UserID:      userID,
		Date:        c.Date,
		Description: c.Description,
		Amount:      c.Amount,
		Direction:   c.Direction,
		Category:    category,
		Balance:     c.Balance,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
