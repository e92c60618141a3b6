package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/spendwise/internal/domain"
)

type budgetRequest struct {
	Month    string `json:"month" validate:"required,yearmonth"`
	Category string `json:"category" validate:"notblank"`
	Date     string `json:"date" validate:"omitempty,isodate"`
	Priority int    `json:"priority" validate:"gte=0,lte=100"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     budgetRequest
		wantMsg string
	}{
		{"valid", budgetRequest{Month: "2024-03", Category: "Food"}, ""},
		{"valid with date", budgetRequest{Month: "2024-03", Category: "Food", Date: "2024-03-31"}, ""},
		{"missing month", budgetRequest{Category: "Food"}, "month is required"},
		{"bad month", budgetRequest{Month: "2024-13", Category: "Food"}, "month must be in YYYY-MM format"},
		{"blank category", budgetRequest{Month: "2024-03", Category: "  "}, "category must not be blank"},
		{"bad date", budgetRequest{Month: "2024-03", Category: "x", Date: "31/03/2024"}, "date must be in YYYY-MM-DD format"},
		{"priority range", budgetRequest{Month: "2024-03", Category: "x", Priority: 101}, "priority must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
