package statement

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/shopspring/decimal"
)

// stubExtractor returns fixed text or an error.
type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	return s.text, s.err
}

func TestDefaultPatternSet_ParseLine(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantOK        bool
		wantDesc      string
		wantAmount    string
		wantDirection domain.Direction
		wantBalance   string
	}{
		{
			name:          "debit with marker and balance",
			line:          "15/03/2024 UPI ZOMATO ORDER 1,450.50 Dr 12,340.00",
			wantOK:        true,
			wantDesc:      "UPI ZOMATO ORDER",
			wantAmount:    "1450.5",
			wantDirection: domain.Outflow,
			wantBalance:   "12340",
		},
		{
			name:          "credit marker",
			line:          "01-04-2024   SALARY APRIL   85,000.00  Cr  97,340.00",
			wantOK:        true,
			wantDesc:      "SALARY APRIL",
			wantAmount:    "85000",
			wantDirection: domain.Inflow,
			wantBalance:   "97340",
		},
		{
			name:          "credit word lowercase",
			line:          "02/04/24 REFUND AMAZON 499.00 credit",
			wantOK:        true,
			wantDesc:      "REFUND AMAZON",
			wantAmount:    "499",
			wantDirection: domain.Inflow,
		},
		{
			name:          "no marker defaults to outflow",
			line:          "03/04/2024 ATM WITHDRAWAL 2000",
			wantOK:        true,
			wantDesc:      "ATM WITHDRAWAL",
			wantAmount:    "2000",
			wantDirection: domain.Outflow,
		},
		{name: "header line", line: "Date Description Amount Balance", wantOK: false},
		{name: "impossible date", line: "31/02/2024 SOMETHING 10.00", wantOK: false},
		{name: "zero amount", line: "01/04/2024 FEE REVERSAL 0.00", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := DefaultPatternSet.ParseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", c.Description, tt.wantDesc)
			}
			if !c.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Amount = %s, want %s", c.Amount, tt.wantAmount)
			}
			if c.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", c.Direction, tt.wantDirection)
			}
			if tt.wantBalance == "" {
				if c.Balance != nil {
					t.Errorf("Balance = %s, want none", c.Balance)
				}
			} else if c.Balance == nil || !c.Balance.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Errorf("Balance = %v, want %s", c.Balance, tt.wantBalance)
			}
		})
	}
}

func TestSignedPatternSet_ParseLine(t *testing.T) {
	c, ok := SignedPatternSet.ParseLine("2024-03-15 TESCO STORES 3345 -23.10 1,204.55")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if c.Direction != domain.Outflow || !c.Amount.Equal(decimal.RequireFromString("23.10")) {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Description != "TESCO STORES 3345" {
		t.Errorf("Description = %q", c.Description)
	}

	c, ok = SignedPatternSet.ParseLine("2024-03-16 INTEREST 1.25")
	if !ok || c.Direction != domain.Inflow {
		t.Errorf("positive amount should be inflow, got ok=%v %+v", ok, c)
	}
}

func TestDefaultPatternSet_IgnoresISODates(t *testing.T) {
	if c, ok := DefaultPatternSet.ParseLine("2024-03-15 TESCO STORES -23.10 1,204.55"); ok {
		t.Errorf("ISO line parsed as day-month-year: %+v", c)
	}
}

func TestStrategiesByName(t *testing.T) {
	got, err := StrategiesByName(" Signed-Amount", "dmy-marker")
	if err != nil {
		t.Fatalf("StrategiesByName failed: %v", err)
	}
	if len(got) != 2 || got[0] != SignedPatternSet || got[1] != DefaultPatternSet {
		t.Errorf("StrategiesByName() = %v", got)
	}

	if _, err := StrategiesByName("dmy-marker", "fixed-width"); err == nil {
		t.Error("expected an error for an unknown name")
	}
}

func TestParser_ParsePDF(t *testing.T) {
	text := "ACME BANK STATEMENT\r\n" +
		"Date Description Amount Balance\n" +
		"15/03/2024 UPI SWIGGY 350.00 Dr 9,650.00\n" +
		"\n" +
		"this line is noise\n" +
		"16/03/2024 NEFT SALARY 50,000.00 Cr 59,650.00\n"

	p := NewParser(WithExtractor(stubExtractor{text: text}))
	got, err := p.Parse(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Date != (civil.Date{Year: 2024, Month: 3, Day: 15}) || got[0].Line != 3 {
		t.Errorf("unexpected first candidate: %+v", got[0])
	}
	if got[1].Direction != domain.Inflow {
		t.Errorf("second candidate should be inflow: %+v", got[1])
	}
}

func TestParser_ParsePDF_ExtractorFailure(t *testing.T) {
	p := NewParser(WithExtractor(stubExtractor{err: errors.New("encrypted")}))
	if _, err := p.Parse(context.Background(), []byte("%PDF-1.7"), MimePDF); err == nil {
		t.Fatal("expected extractor error to surface")
	}
}

func TestParser_ParsePDF_EmptyFile(t *testing.T) {
	p := NewParser(WithExtractor(stubExtractor{err: errors.New("must not be called")}))
	got, err := p.Parse(context.Background(), nil, MimePDF)
	if err != nil || len(got) != 0 {
		t.Errorf("empty file should yield no candidates and no error, got %v, %v", got, err)
	}
}

func TestParser_CustomStrategiesInOrder(t *testing.T) {
	text := "2024-03-15 TESCO -23.10\n15/03/2024 UBER 120.00 Dr"
	p := NewParser(
		WithExtractor(stubExtractor{text: text}),
		WithStrategies(SignedPatternSet, DefaultPatternSet),
	)
	got, err := p.ParsePDF(context.Background(), []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both formats to parse, got %d", len(got))
	}
}

func TestPlainTextExtractor_RejectsGarbage(t *testing.T) {
	_, err := NewPlainTextExtractor().ExtractText(context.Background(), []byte("not a pdf at all"))
	if err == nil {
		t.Fatal("expected an error for non-PDF bytes")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		mime    string
		want    Format
		wantErr bool
	}{
		{"application/pdf", FormatPDF, false},
		{"text/csv", FormatCSV, false},
		{"application/csv", FormatCSV, false},
		{"text/csv; charset=utf-8", FormatCSV, false},
		{"Application/PDF", FormatPDF, false},
		{"image/png", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got, err := DetectFormat(tt.mime)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v", tt.mime, err)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), []byte("{}"), "application/json")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
