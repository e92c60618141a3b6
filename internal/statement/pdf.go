package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/spendwise/internal/domain"
)

// LineStrategy turns one line of statement text into a candidate. ok is
// false when the line is not a transaction.
type LineStrategy interface {
	Name() string
	ParseLine(line string) (c domain.Candidate, ok bool)
}

// PatternSet is a LineStrategy driven by one regular expression. Group
// indexes point at the submatches holding each field; zero means absent.
type PatternSet struct {
	Label   string
	Pattern *regexp.Regexp

	DateGroup        int
	DescriptionGroup int
	AmountGroup      int
	MarkerGroup      int
	BalanceGroup     int

	// SignedAmount makes a leading minus on the amount mean outflow and
	// anything else inflow. Markers are ignored when it is set.
	SignedAmount bool
}

// DefaultPatternSet matches lines like
//
//	15/03/2024  UPI ZOMATO ORDER  450.00  Dr  12,340.00
//
// A line without a marker is an outflow. The date must start at a word
// boundary so an ISO date is never read as day-month-year.
var DefaultPatternSet = &PatternSet{
	Label:            "dmy-marker",
	Pattern:          regexp.MustCompile(`(?i)\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s+(.+?)\s+([\d,]+\.?\d*)\s*(Debit|Credit|Dr|Cr)?\s*([\d,]+\.?\d*)?`),
	DateGroup:        1,
	DescriptionGroup: 2,
	AmountGroup:      3,
	MarkerGroup:      4,
	BalanceGroup:     5,
}

// SignedPatternSet matches exports that print a signed amount and an
// optional balance at the end of the line:
//
//	2024-03-15 TESCO STORES 3345 -23.10 1,204.55
var SignedPatternSet = &PatternSet{
	Label:            "signed-amount",
	Pattern:          regexp.MustCompile(`^\s*(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s+(.+?)\s+(-?[\d,]+\.\d{2})(?:\s+(-?[\d,]+\.\d{2}))?\s*$`),
	DateGroup:        1,
	DescriptionGroup: 2,
	AmountGroup:      3,
	BalanceGroup:     4,
	SignedAmount:     true,
}

// StrategiesByName resolves strategy labels, such as "dmy-marker" or
// "signed-amount", keeping their order.
func StrategiesByName(names ...string) ([]LineStrategy, error) {
	known := map[string]LineStrategy{
		DefaultPatternSet.Label: DefaultPatternSet,
		SignedPatternSet.Label:  SignedPatternSet,
	}
	out := make([]LineStrategy, 0, len(names))
	for _, name := range names {
		s, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown line format %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Name implements LineStrategy.
func (p *PatternSet) Name() string {
	return p.Label
}

// ParseLine implements LineStrategy.
func (p *PatternSet) ParseLine(line string) (domain.Candidate, bool) {
	m := p.Pattern.FindStringSubmatch(line)
	if m == nil {
		return domain.Candidate{}, false
	}

	date, ok := ParseDate(group(m, p.DateGroup))
	if !ok {
		return domain.Candidate{}, false
	}
	description := strings.TrimSpace(group(m, p.DescriptionGroup))
	if description == "" {
		return domain.Candidate{}, false
	}
	amount, ok := parseAmount(group(m, p.AmountGroup))
	if !ok {
		return domain.Candidate{}, false
	}

	direction := domain.Outflow
	if p.SignedAmount {
		if amount.IsPositive() {
			direction = domain.Inflow
		}
		amount = amount.Abs()
	} else if isCreditMarker(group(m, p.MarkerGroup)) {
		direction = domain.Inflow
	}
	if !amount.IsPositive() {
		return domain.Candidate{}, false
	}

	c := domain.Candidate{
		Date:        date,
		Description: description,
		Amount:      amount,
		Direction:   direction,
	}
	if bal, ok := parseAmount(group(m, p.BalanceGroup)); ok {
		c.Balance = &bal
	}
	return c, true
}

func group(m []string, i int) string {
	if i <= 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

// parseLines runs every line through the strategies in order and keeps the
// first successful parse. Lines nobody understands are dropped.
func parseLines(text string, strategies []LineStrategy) []domain.Candidate {
	var out []domain.Candidate
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, s := range strategies {
			if c, ok := s.ParseLine(line); ok {
				c.Line = i + 1
				out = append(out, c)
				break
			}
		}
	}
	return out
}
