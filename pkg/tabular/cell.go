package tabular

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellKind tags the variant held by a Cell
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindDate
)

func (k CellKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is one untyped source value. Exactly one of the payload fields is meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	text   string
	number float64
	date   time.Time
}

// Text returns a text cell; blank strings become empty cells
func Text(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Empty()
	}
	return Cell{Kind: KindText, text: s}
}

// Number returns a numeric cell
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, number: f}
}

// Date returns a date/time cell
func Date(t time.Time) Cell {
	return Cell{Kind: KindDate, date: t}
}

// Empty returns an empty cell
func Empty() Cell {
	return Cell{Kind: KindEmpty}
}

// IsEmpty reports whether the cell carries no value
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// String renders the cell as text. Numbers never use exponent notation so phone numbers survive.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.number, 'f', -1, 64)
	case KindDate:
		if c.date.Hour() == 0 && c.date.Minute() == 0 && c.date.Second() == 0 {
			return c.date.Format("2006-01-02")
		}
		return c.date.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

var dateLayouts = []string{
	"2.1.2006",
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2.1.06",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2/1/2006 15:04",
}

var turkishMonths = map[string]string{
	"ocak": "1", "şubat": "2", "subat": "2", "mart": "3", "nisan": "4", "mayıs": "5", "mayis": "5",
	"haziran": "6", "temmuz": "7", "ağustos": "8", "agustos": "8", "eylül": "9", "eylul": "9",
	"ekim": "10", "kasım": "11", "kasim": "11", "aralık": "12", "aralik": "12",
}

// AsDate coerces the cell to a calendar date at UTC midnight.
// Text is parsed day-first; numbers are spreadsheet serial dates.
func (c Cell) AsDate() (time.Time, error) {
	switch c.Kind {
	case KindDate:
		return truncateDate(c.date), nil
	case KindNumber:
		if c.number < 1 || c.number > 2958465 {
			return time.Time{}, fmt.Errorf("number %v is not a spreadsheet date", c.number)
		}
		t, err := excelize.ExcelDateToTime(c.number, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDate(t), nil
	case KindText:
		return parseDateText(c.text)
	default:
		return time.Time{}, fmt.Errorf("empty date cell")
	}
}

func parseDateText(s string) (time.Time, error) {
	if t, ok := tryDateLayouts(s); ok {
		return t, nil
	}
	// "10 Ocak 2024", "10.01.2024 Çarşamba"
	fields := strings.Fields(s)
	if len(fields) >= 3 {
		if month, ok := turkishMonths[strings.ToLower(fields[1])]; ok {
			if t, ok := tryDateLayouts(fields[0] + "." + month + "." + fields[2]); ok {
				return t, nil
			}
		}
	}
	if len(fields) > 1 {
		if t, ok := tryDateLayouts(fields[0]); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func tryDateLayouts(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDate(t), true
		}
	}
	return time.Time{}, false
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var clockPattern = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:[:.]\d{2})?$`)

// AsClock coerces the cell to a 24-hour wall clock time
func (c Cell) AsClock() (hour, minute int, err error) {
	switch c.Kind {
	case KindDate:
		return c.date.Hour(), c.date.Minute(), nil
	case KindNumber:
		// spreadsheet time values are fractions of a day
		if c.number < 0 || c.number >= 1 {
			return 0, 0, fmt.Errorf("number %v is not a time of day", c.number)
		}
		total := int(math.Round(c.number * 24 * 60))
		if total == 24*60 {
			total--
		}
		return total / 60, total % 60, nil
	case KindText:
		m := clockPattern.FindStringSubmatch(c.text)
		if m == nil {
			return 0, 0, fmt.Errorf("unrecognized time %q", c.text)
		}
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, 0, fmt.Errorf("time %q out of range", c.text)
		}
		return hour, minute, nil
	default:
		return 0, 0, fmt.Errorf("empty time cell")
	}
}
