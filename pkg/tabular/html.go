package tabular

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"roster-service/internal/domain/errs"
)

type htmlStrategy struct{}

type htmlCell struct {
	text    string
	header  bool
	colspan int
}

// Extract parses the first <table> in the document. The header is the first row made only of <th>
// cells, or the first row when there is none.
func (htmlStrategy) Extract(payload []byte) (*Table, error) {
	text, err := decodeText(payload)
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, HTMLTable, err)
	}
	doc, err := html.Parse(bytes.NewReader(text))
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, HTMLTable, err)
	}

	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, extractionErr(errs.NoTableFound, HTMLTable, nil)
	}

	var rows [][]htmlCell
	collectRows(table, &rows)
	if len(rows) == 0 {
		return nil, extractionErr(errs.NoTableFound, HTMLTable, nil)
	}

	headerIdx := 0
	for i, row := range rows {
		if allHeaderCells(row) {
			headerIdx = i
			break
		}
	}

	header := expandSpans(rows[headerIdx])
	data := make([][]Cell, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		data = append(data, textCells(expandSpans(row)))
	}
	return buildTable(header, data, headerIdx+2), nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectRows gathers the table's own rows, descending into row groups but not nested tables
func collectRows(n *html.Node, rows *[][]htmlCell) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Thead, atom.Tbody, atom.Tfoot:
			collectRows(c, rows)
		case atom.Tr:
			var row []htmlCell
			for td := c.FirstChild; td != nil; td = td.NextSibling {
				if td.Type != html.ElementNode || (td.DataAtom != atom.Td && td.DataAtom != atom.Th) {
					continue
				}
				row = append(row, htmlCell{
					text:    nodeText(td),
					header:  td.DataAtom == atom.Th,
					colspan: colspan(td),
				})
			}
			if len(row) > 0 {
				*rows = append(*rows, row)
			}
		}
	}
}

func allHeaderCells(row []htmlCell) bool {
	for _, c := range row {
		if !c.header {
			return false
		}
	}
	return true
}

func expandSpans(row []htmlCell) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, c.text)
		for i := 1; i < c.colspan; i++ {
			out = append(out, "")
		}
	}
	return out
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 1 && v < 100 {
				return v
			}
		}
	}
	return 1
}

// nodeText returns the whitespace-collapsed text content of n; <br> counts as a space
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte(' ')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Table):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
