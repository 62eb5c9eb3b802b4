package tabular

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"roster-service/internal/domain/errs"
)

type pdfStrategy struct{}

// textRun is one positioned piece of text on a page line
type textRun struct {
	X        float64
	W        float64
	FontSize float64
	S        string
}

type pdfCell struct {
	X    float64
	Text string
}

// Extract reconstructs the first table from positioned page text. The first line with at least two
// cells is the header; later lines are aligned to header columns by horizontal position and repeated
// page headers are dropped.
func (pdfStrategy) Extract(payload []byte) (t *Table, err error) {
	// the PDF reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = extractionErr(errs.CorruptPayload, PaginatedDocument, fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, PaginatedDocument, err)
	}

	var lines [][]textRun
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, extractionErr(errs.CorruptPayload, PaginatedDocument, err)
		}
		for _, row := range rows {
			line := make([]textRun, 0, len(row.Content))
			for _, text := range row.Content {
				line = append(line, textRun{X: text.X, W: text.W, FontSize: text.FontSize, S: text.S})
			}
			lines = append(lines, line)
		}
	}
	return tableFromLines(lines)
}

func tableFromLines(lines [][]textRun) (*Table, error) {
	var header []pdfCell
	var records [][]Cell
	firstRow := 0
	for i, line := range lines {
		cells := splitCells(line)
		if len(cells) < 2 {
			continue
		}
		if header == nil {
			header = cells
			firstRow = i + 2
			continue
		}
		if sameTexts(cells, header) {
			continue
		}
		records = append(records, alignCells(cells, header))
	}
	if header == nil {
		return nil, extractionErr(errs.NoTableFound, PaginatedDocument, nil)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = h.Text
	}
	return buildTable(names, records, firstRow), nil
}

// splitCells merges runs separated by less than about one character width into cells
func splitCells(line []textRun) []pdfCell {
	runs := append([]textRun(nil), line...)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var cells []pdfCell
	var cur *pdfCell
	prevEnd := 0.0
	for _, r := range runs {
		size := r.FontSize
		if size <= 0 {
			size = 10
		}
		width := r.W
		if width <= 0 {
			width = float64(len([]rune(r.S))) * size * 0.5
		}
		gap := r.X - prevEnd
		switch {
		case cur == nil || gap > size:
			if cur != nil {
				cells = append(cells, *cur)
			}
			cur = &pdfCell{X: r.X, Text: r.S}
		case gap > size*0.15 && !strings.HasSuffix(cur.Text, " "):
			cur.Text += " " + r.S
		default:
			cur.Text += r.S
		}
		prevEnd = r.X + width
	}
	if cur != nil {
		cells = append(cells, *cur)
	}

	out := cells[:0]
	for _, c := range cells {
		c.Text = strings.Join(strings.Fields(c.Text), " ")
		if c.Text != "" {
			out = append(out, c)
		}
	}
	return out
}

// alignCells places each cell under the header column nearest to its X position
func alignCells(cells, header []pdfCell) []Cell {
	out := make([]Cell, len(header))
	for i := range out {
		out[i] = Empty()
	}
	for _, c := range cells {
		best, bestDist := 0, math.MaxFloat64
		for i, h := range header {
			if d := math.Abs(c.X - h.X); d < bestDist {
				best, bestDist = i, d
			}
		}
		if out[best].IsEmpty() {
			out[best] = Text(c.Text)
		} else {
			out[best] = Text(out[best].String() + " " + c.Text)
		}
	}
	return out
}

func sameTexts(a, b []pdfCell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}
