// Package tabular turns roster payloads of several container formats into a uniform table of untyped cells
// and renames source columns to canonical fields.
package tabular

import (
	"roster-service/internal/domain/errs"
)

// Strategy extracts the first table from a payload of one format
type Strategy interface {
	Extract(payload []byte) (*Table, error)
}

// Extractor dispatches to the strategy registered for a format
type Extractor struct {
	strategies map[Format]Strategy
}

// NewExtractor returns an extractor with all four built-in strategies
func NewExtractor() *Extractor {
	return &Extractor{strategies: map[Format]Strategy{
		Delimited:         delimitedStrategy{},
		Spreadsheet:       spreadsheetStrategy{},
		HTMLTable:         htmlStrategy{},
		PaginatedDocument: pdfStrategy{},
	}}
}

// Register replaces or adds the strategy for a format
func (e *Extractor) Register(format Format, s Strategy) {
	e.strategies[format] = s
}

// Extract returns the first table found in payload.
// Failures are always *errs.ExtractionError.
func (e *Extractor) Extract(payload []byte, format Format) (*Table, error) {
	s, ok := e.strategies[format]
	if !ok {
		return nil, &errs.ExtractionError{Kind: errs.UnsupportedFormat, Format: string(format)}
	}
	if len(payload) == 0 {
		return nil, &errs.ExtractionError{Kind: errs.NoTableFound, Format: string(format)}
	}
	return s.Extract(payload)
}

var defaultExtractor = NewExtractor()

// Extract uses the default strategies
func Extract(payload []byte, format Format) (*Table, error) {
	return defaultExtractor.Extract(payload, format)
}

func extractionErr(kind errs.ExtractionKind, format Format, err error) error {
	return &errs.ExtractionError{Kind: kind, Format: string(format), Err: err}
}
