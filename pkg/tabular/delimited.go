package tabular

import (
	"bytes"
	"encoding/csv"

	"roster-service/internal/domain/errs"
)

type delimitedStrategy struct{}

func (delimitedStrategy) Extract(payload []byte) (*Table, error) {
	text, err := decodeText(payload)
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, Delimited, err)
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, extractionErr(errs.NoTableFound, Delimited, nil)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, Delimited, err)
	}
	if len(records) == 0 {
		return nil, extractionErr(errs.NoTableFound, Delimited, nil)
	}

	// leading blank lines are skipped by encoding/csv; the first record is the header
	data := make([][]Cell, 0, len(records)-1)
	for _, rec := range records[1:] {
		data = append(data, textCells(rec))
	}
	return buildTable(records[0], data, 2), nil
}

// sniffDelimiter picks the most frequent candidate separator on the header line
func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestCount := ',', 0
	inQuotes := false
	counts := map[rune]int{}
	for _, b := range line {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case b == ',' || b == ';' || b == '\t' || b == '|':
			counts[rune(b)]++
		}
	}
	for _, cand := range []rune{',', ';', '\t', '|'} {
		if counts[cand] > bestCount {
			best, bestCount = cand, counts[cand]
		}
	}
	return best
}
