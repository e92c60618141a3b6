package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/spendwise/internal/domain"
)

// Candidate header names per logical column. The first name present in the
// header wins; comparison ignores case and surrounding spaces.
var (
	dateColumns        = []string{"date", "transaction date", "txn date", "posting date"}
	descriptionColumns = []string{"description", "narration", "particulars", "details"}
	amountColumns      = []string{"amount", "transaction amount", "txn amount"}
	debitColumns       = []string{"debit", "withdrawal", "debit amount"}
	creditColumns      = []string{"credit", "deposit", "credit amount"}
	typeColumns        = []string{"type", "transaction type", "txn type"}
	balanceColumns     = []string{"balance", "closing balance", "available balance"}
)

// columnMap holds the index of each logical column, -1 when missing.
type columnMap struct {
	date, description, amount, debit, credit, kind, balance int
}

func mapColumns(header []string) columnMap {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}
	return columnMap{
		date:        find(dateColumns),
		description: find(descriptionColumns),
		amount:      find(amountColumns),
		debit:       find(debitColumns),
		credit:      find(creditColumns),
		kind:        find(typeColumns),
		balance:     find(balanceColumns),
	}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseCSVReader reads a statement CSV one row at a time. The first record is
// the header. Rows missing a date, description or amount are skipped, as are
// rows the csv reader rejects, such as a stray quote inside a field. Quotes are
// parsed strictly so a broken row cannot swallow the rows after it. An I/O error stops the scan and is returned
// together with the rows read so far.
func ParseCSVReader(r io.Reader) ([]domain.Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ParseCSVReader: read header: %w", err)
	}
	cols := mapColumns(header)

	var out []domain.Candidate
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return out, fmt.Errorf("ParseCSVReader: row %d: %w", rowNum, err)
		}
		if c, ok := cols.candidate(row); ok {
			c.Line = rowNum
			out = append(out, c)
		}
	}
	return out, nil
}

// candidate resolves one data row. A unified amount column wins and the type
// column, when present, gives the direction; without one the row is an
// outflow. Otherwise whichever of debit or credit holds a non-zero value is
// used.
func (cols columnMap) candidate(row []string) (domain.Candidate, bool) {
	date, ok := ParseDate(cell(row, cols.date))
	if !ok {
		return domain.Candidate{}, false
	}
	description := cell(row, cols.description)
	if description == "" {
		return domain.Candidate{}, false
	}

	c := domain.Candidate{Date: date, Description: description, Direction: domain.Outflow}

	resolved := false
	if raw := cell(row, cols.amount); raw != "" {
		if amount, ok := parseAmount(raw); ok && !amount.IsZero() {
			c.Amount = amount.Abs()
			if isCreditMarker(cell(row, cols.kind)) {
				c.Direction = domain.Inflow
			}
			resolved = true
		}
	}
	if !resolved {
		if amount, ok := parseAmount(cell(row, cols.debit)); ok && !amount.IsZero() {
			c.Amount, c.Direction, resolved = amount.Abs(), domain.Outflow, true
		} else if amount, ok := parseAmount(cell(row, cols.credit)); ok && !amount.IsZero() {
			c.Amount, c.Direction, resolved = amount.Abs(), domain.Inflow, true
		}
	}
	if !resolved {
		return domain.Candidate{}, false
	}

	if bal, ok := parseAmount(cell(row, cols.balance)); ok {
		c.Balance = &bal
	}
	return c, true
}
