package statement

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls the text layer out of a PDF, one statement row per line.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// PlainTextExtractor reads the embedded text layer of a PDF and rebuilds
// lines by grouping glyphs that share a baseline.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates the default extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractText implements TextExtractor.
func (e *PlainTextExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ExtractText: malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ExtractText: open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("ExtractText: page %d: %w", i, err)
		}
		for _, row := range rows {
			sb.WriteString(joinRow(row.Content))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// joinRow concatenates the glyph runs of a row, inserting a space where the
// horizontal gap between runs is wider than a fraction of the font size.
func joinRow(texts pdf.TextHorizontal) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > math.Max(t.FontSize*0.25, 1) && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return sb.String()
}
