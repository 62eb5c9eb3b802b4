package tabular

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"roster-service/internal/domain/errs"
)

// Canonical field names understood by the shift builder
const (
	FieldDoctorName = "doctor_name"
	FieldDate       = "date"
	FieldShiftType  = "shift_type"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"
	FieldPhone      = "phone"
	FieldEmail      = "email"
	FieldNotes      = "notes"
)

// CanonicalFields lists the canonical fields in output column order
var CanonicalFields = []string{
	FieldDoctorName, FieldDate, FieldShiftType, FieldStartTime, FieldEndTime, FieldPhone, FieldEmail, FieldNotes,
}

// RequiredFields must be present in every mapping and every mapped table
var RequiredFields = []string{FieldDoctorName, FieldDate}

// Mapping maps a canonical field to the source headers that may carry it, in priority order.
// In JSON each value may be a single header string or a list of headers.
type Mapping map[string][]string

// UnmarshalJSON accepts {"field": "Header"} and {"field": ["Header A", "Header B"]}
func (m *Mapping) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Mapping, len(raw))
	for field, v := range raw {
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			out[field] = []string{single}
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			return fmt.Errorf("field %q: expected a header name or a list of header names", field)
		}
		out[field] = list
	}
	*m = out
	return nil
}

// DefaultMapping covers the canonical names and the usual Turkish roster headers.
// Uploads without an explicit mapping use it.
func DefaultMapping() Mapping {
	return Mapping{
		FieldDoctorName: {FieldDoctorName, "Doktor", "Doktor Adı", "Ad Soyad", "Adı Soyadı", "Hekim", "Doctor", "Name"},
		FieldDate:       {FieldDate, "Tarih", "Nöbet Tarihi", "Date"},
		FieldShiftType:  {FieldShiftType, "Nöbet Türü", "Vardiya", "Tür", "Shift", "Type"},
		FieldStartTime:  {FieldStartTime, "Başlangıç", "Başlangıç Saati", "Start"},
		FieldEndTime:    {FieldEndTime, "Bitiş", "Bitiş Saati", "End"},
		FieldPhone:      {FieldPhone, "Telefon", "Tel", "GSM", "Phone"},
		FieldEmail:      {FieldEmail, "E-posta", "Eposta", "Email"},
		FieldNotes:      {FieldNotes, "Not", "Notlar", "Açıklama", "Notes"},
	}
}

// ParseMapping decodes and validates a mapping document
func ParseMapping(raw []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.NewValidationError("column_mapping", errs.CodeMalformedMapping, "malformed column mapping: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that required fields are mapped to at least one non-blank header
func (m Mapping) Validate() error {
	if m == nil {
		return errs.NewValidationError("column_mapping", errs.CodeRequired, "column mapping is required")
	}
	var missing []string
	for _, f := range RequiredFields {
		if !hasAlias(m[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return errs.NewValidationError("column_mapping", errs.CodeRequired, "missing required fields: %s", strings.Join(missing, ", "))
	}
	for field, aliases := range m {
		if strings.TrimSpace(field) == "" {
			return errs.NewValidationError("column_mapping", errs.CodeMalformedMapping, "empty field name")
		}
		if !hasAlias(aliases) {
			return errs.NewValidationError("column_mapping", errs.CodeMalformedMapping, "field %q has no source headers", field)
		}
	}
	return nil
}

func hasAlias(aliases []string) bool {
	for _, a := range aliases {
		if strings.TrimSpace(a) != "" {
			return true
		}
	}
	return false
}

// fields returns the mapped fields, canonical ones first in canonical order, then the rest sorted
func (m Mapping) fields() []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, f := range CanonicalFields {
		if _, ok := m[f]; ok {
			out = append(out, f)
			seen[f] = true
		}
	}
	var extra []string
	for f := range m {
		if !seen[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Map renames source columns to mapped fields. For each field the first alias present among the
// source headers wins; an exact match is preferred over a case- and space-insensitive one.
// Unmapped source columns are dropped. Required fields are not checked here.
func Map(t *Table, m Mapping) *Table {
	byFold := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		key := foldHeader(h)
		if _, ok := byFold[key]; !ok {
			byFold[key] = h
		}
	}

	sources := make(map[string]string)
	out := &Table{}
	for _, field := range m.fields() {
		source, ok := resolveAlias(t, byFold, m[field])
		if !ok {
			continue
		}
		sources[field] = source
		out.Headers = append(out.Headers, field)
	}

	out.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make(map[string]Cell, len(out.Headers))
		for _, field := range out.Headers {
			cells[field] = row.Get(sources[field])
		}
		out.Rows = append(out.Rows, Row{Number: row.Number, Cells: cells})
	}
	return out
}

// MissingRequired returns the required fields absent from a mapped table
func MissingRequired(t *Table) []string {
	var missing []string
	for _, f := range RequiredFields {
		if !t.HasColumn(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func resolveAlias(t *Table, byFold map[string]string, aliases []string) (string, bool) {
	for _, a := range aliases {
		if t.HasColumn(a) {
			return a, true
		}
	}
	for _, a := range aliases {
		if h, ok := byFold[foldHeader(a)]; ok {
			return h, true
		}
	}
	return "", false
}

func foldHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
