// Package statement converts uploaded bank statements into transaction
// candidates.
//
// Extraction is best effort. Lines and rows that cannot be read are dropped
// without error, so a statement nobody understands yields an empty result.
// The only hard failures are an unsupported MIME type and a PDF whose text
// cannot be extracted at all.
package statement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/dvloznov/spendwise/internal/domain"
)

// Supported MIME types.
const (
	MimePDF    = "application/pdf"
	MimeCSV    = "text/csv"
	MimeAppCSV = "application/csv"
)

// ErrUnsupportedFormat is returned for any MIME type other than PDF or CSV.
var ErrUnsupportedFormat = errors.New("unsupported statement format")

// Format is the detected kind of statement.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// DetectFormat maps a declared MIME type to a Format. Parameters such as a
// charset are ignored.
func DetectFormat(mimeType string) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch mt {
	case MimePDF:
		return FormatPDF, nil
	case MimeCSV, MimeAppCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
}

// Parser parses statements with a configurable PDF text extractor and line
// strategies.
type Parser struct {
	extractor  TextExtractor
	strategies []LineStrategy
}

// Option configures a Parser.
type Option func(*Parser)

// WithExtractor replaces the PDF text extractor.
func WithExtractor(e TextExtractor) Option {
	return func(p *Parser) {
		p.extractor = e
	}
}

// WithStrategies replaces the PDF line strategies. They are tried in order
// and the first one that accepts a line wins.
func WithStrategies(s ...LineStrategy) Option {
	return func(p *Parser) {
		p.strategies = s
	}
}

// NewParser returns a parser using the plain text extractor and the default
// pattern set unless overridden.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		extractor:  NewPlainTextExtractor(),
		strategies: []LineStrategy{DefaultPatternSet},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strategies returns the names of the PDF line strategies in the order they
// are tried.
func (p *Parser) Strategies() []string {
	names := make([]string, 0, len(p.strategies))
	for _, s := range p.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Parse dispatches on mimeType and returns the candidates found in data.
func (p *Parser) Parse(ctx context.Context, data []byte, mimeType string) ([]domain.Candidate, error) {
	format, err := DetectFormat(mimeType)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPDF:
		return p.ParsePDF(ctx, data)
	default:
		return ParseCSV(data)
	}
}

// ParsePDF extracts the text of a PDF and runs it through ParseText.
func (p *Parser) ParsePDF(ctx context.Context, data []byte) ([]domain.Candidate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	text, err := p.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ParsePDF: %w", err)
	}
	return p.ParseText(text), nil
}

// ParseText applies the line strategies to already extracted text.
func (p *Parser) ParseText(text string) []domain.Candidate {
	return parseLines(text, p.strategies)
}

// ParseCSV parses an in-memory CSV statement.
func ParseCSV(data []byte) ([]domain.Candidate, error) {
	return ParseCSVReader(bytes.NewReader(data))
}
