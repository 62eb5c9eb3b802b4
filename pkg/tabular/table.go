package tabular

import (
	"fmt"
	"strings"
)

// Row is one data row keyed by header. Number is the 1-based source row, header included.
type Row struct {
	Number int
	Cells  map[string]Cell
}

// Get returns the cell under header, or an empty cell
func (r Row) Get(header string) Cell {
	if c, ok := r.Cells[header]; ok {
		return c
	}
	return Empty()
}

// IsBlank reports whether every cell in the row is empty
func (r Row) IsBlank() bool {
	for _, c := range r.Cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Table is an ordered header list plus rows of untyped cells
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether header is present
func (t *Table) HasColumn(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// normalizeHeaders trims header text and replaces blank or repeated names with column_N
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.Join(strings.Fields(h), " ")
		if h == "" || seen[h] {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h] = true
		headers[i] = h
	}
	return headers
}

// buildTable assembles a table from a header record and data records, dropping blank rows.
// firstRow is the source row number of the first data record.
func buildTable(header []string, records [][]Cell, firstRow int) *Table {
	t := &Table{Headers: normalizeHeaders(header)}
	for i, rec := range records {
		row := Row{Number: firstRow + i, Cells: make(map[string]Cell, len(t.Headers))}
		for j, h := range t.Headers {
			if j < len(rec) {
				row.Cells[h] = rec[j]
			} else {
				row.Cells[h] = Empty()
			}
		}
		if row.IsBlank() {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func textCells(values []string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Text(v)
	}
	return cells
}
