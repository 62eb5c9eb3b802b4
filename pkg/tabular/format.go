package tabular

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"roster-service/internal/domain/errs"
)

// Format is the declared container format of a roster payload
type Format string

const (
	Delimited         Format = "delimited"
	Spreadsheet       Format = "spreadsheet"
	HTMLTable         Format = "html_table"
	PaginatedDocument Format = "paginated_document"
)

var formatAliases = map[string]Format{
	"delimited":          Delimited,
	"csv":                Delimited,
	"spreadsheet":        Spreadsheet,
	"excel":              Spreadsheet,
	"xlsx":               Spreadsheet,
	"html_table":         HTMLTable,
	"html":               HTMLTable,
	"paginated_document": PaginatedDocument,
	"pdf":                PaginatedDocument,
}

// Valid reports whether f is one of the four supported formats
func (f Format) Valid() bool {
	switch f {
	case Delimited, Spreadsheet, HTMLTable, PaginatedDocument:
		return true
	}
	return false
}

// ParseFormat resolves a format name or one of its common aliases
func ParseFormat(s string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", &errs.ExtractionError{Kind: errs.UnsupportedFormat, Format: s}
}

// FormatFromFileName picks the format from an uploaded file's extension.
// Legacy binary .xls workbooks are rejected.
func FormatFromFileName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return Delimited, nil
	case ".xlsx", ".xlsm":
		return Spreadsheet, nil
	case ".html", ".htm":
		return HTMLTable, nil
	case ".pdf":
		return PaginatedDocument, nil
	}
	return "", errs.NewValidationError("file", errs.CodeUnsupportedFile, "unsupported file type %q", filepath.Ext(name))
}

// Sniff reports whether payload content plausibly matches the declared format.
// Delimited text cannot be told apart from arbitrary text, so it only excludes binary containers.
func Sniff(payload []byte, format Format) bool {
	contentType := http.DetectContentType(payload)
	switch format {
	case Spreadsheet:
		return bytes.HasPrefix(payload, []byte("PK\x03\x04"))
	case PaginatedDocument:
		return contentType == "application/pdf"
	case HTMLTable:
		return strings.HasPrefix(contentType, "text/html") || bytes.Contains(bytes.ToLower(payload), []byte("<table"))
	case Delimited:
		return strings.HasPrefix(contentType, "text/") || contentType == "application/octet-stream"
	}
	return false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText strips a UTF-8 BOM and falls back to Windows-1254 for legacy Turkish exports
func decodeText(payload []byte) ([]byte, error) {
	payload = bytes.TrimPrefix(payload, utf8BOM)
	if utf8.Valid(payload) {
		return payload, nil
	}
	return charmap.Windows1254.NewDecoder().Bytes(payload)
}
