package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a statement number such as "1,234.50". Thousands
// separators are dropped; anything else that is not a plain decimal fails.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// isCreditMarker reports whether a direction marker or type cell denotes
// money coming in.
func isCreditMarker(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Contains(s, "cr") || s == "credit"
}
