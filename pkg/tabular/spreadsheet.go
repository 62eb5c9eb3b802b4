package tabular

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"roster-service/internal/domain/errs"
)

type spreadsheetStrategy struct{}

// Extract reads the first worksheet. Numeric cells whose number format is a date format become date cells.
func (spreadsheetStrategy) Extract(payload []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, Spreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, extractionErr(errs.NoTableFound, Spreadsheet, nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, extractionErr(errs.CorruptPayload, Spreadsheet, err)
	}

	// skip leading empty rows; the first non-empty row is the header
	start := 0
	for start < len(rows) && isBlankRecord(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, extractionErr(errs.NoTableFound, Spreadsheet, nil)
	}

	styles := &dateStyleCache{file: f, known: map[int]bool{}}
	data := make([][]Cell, 0, len(rows)-start-1)
	for r := start + 1; r < len(rows); r++ {
		cells := make([]Cell, len(rows[r]))
		for c, raw := range rows[r] {
			cells[c] = spreadsheetCell(f, sheet, styles, c+1, r+1, raw)
		}
		data = append(data, cells)
	}
	return buildTable(rows[start], data, start+2), nil
}

func spreadsheetCell(f *excelize.File, sheet string, styles *dateStyleCache, col, row int, raw string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Empty()
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Text(raw)
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Number(n)
	}
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || !styles.isDate(styleID) {
		return Number(n)
	}
	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return Number(n)
	}
	return Date(t)
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// built-in number format IDs that render as dates or times
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

type dateStyleCache struct {
	file  *excelize.File
	known map[int]bool
}

func (c *dateStyleCache) isDate(styleID int) bool {
	if v, ok := c.known[styleID]; ok {
		return v
	}
	v := false
	if style, err := c.file.GetStyle(styleID); err == nil && style != nil {
		v = builtinDateFormats[style.NumFmt]
		if !v && style.CustomNumFmt != nil {
			v = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	c.known[styleID] = v
	return v
}

// isDateFormatCode inspects a custom number format for date or time tokens outside literals
func isDateFormatCode(code string) bool {
	code = strings.ToLower(formatLiterals.ReplaceAllString(code, ""))
	if code == "general" {
		return false
	}
	return strings.ContainsAny(code, "ydhs")
}
