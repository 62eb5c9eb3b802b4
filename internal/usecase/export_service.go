package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
	"roster-service/pkg/utils"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the export file type
type ExportFormat string

const (
	ExportSpreadsheet ExportFormat = "spreadsheet"
	ExportDelimited   ExportFormat = "delimited"
	ExportPrintable   ExportFormat = "printable"
)

// ContactMode controls how doctor contact data appears in exports
type ContactMode string

const (
	ContactOmit   ContactMode = "omit"
	ContactFull   ContactMode = "full"
	ContactMasked ContactMode = "masked"
)

// ExportFile is a rendered export
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type exportRow struct {
	Date   string
	Doctor string
	Type   string
	Start  string
	End    string
	Notes  string
	Phone  string
	Email  string
}

const sheetName = "Nöbet Listesi"

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

var printableTemplate = template.Must(template.New("roster").Parse(`<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 11pt; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #4472c4; color: #fff; }
@media print { th { -webkit-print-color-adjust: exact; print-color-adjust: exact; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Period}}</p>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- $contact := .Contact}}
{{- range .Rows}}
<tr><td>{{.Date}}</td><td>{{.Doctor}}</td><td>{{.Type}}</td><td>{{.Start}}</td><td>{{.End}}</td><td>{{.Notes}}</td>{{if $contact}}<td>{{.Phone}}</td><td>{{.Email}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
<p><small>{{.Generated}}</small></p>
</body>
</html>
`))

// ExportService renders schedules for download and print
type ExportService struct {
	store   repository.Store
	auditor *Auditor
	logger  logger.Logger
	now     func() time.Time
}

// NewExportService creates a new export service
func NewExportService(store repository.Store, auditor *Auditor, logger logger.Logger) *ExportService {
	return &ExportService{store: store, auditor: auditor, logger: logger, now: time.Now}
}

// Export renders the shifts of one schedule ordered by date and start time
func (s *ExportService) Export(ctx context.Context, shiftListID uint, format ExportFormat, contact ContactMode, actor entity.Actor) (*ExportFile, error) {
	switch contact {
	case "":
		contact = ContactOmit
	case ContactOmit, ContactFull, ContactMasked:
	default:
		return nil, errs.NewValidationError("contact", errs.CodeInvalid, "unknown contact mode %q", contact)
	}

	list, err := s.store.ShiftLists().GetByID(ctx, shiftListID)
	if err != nil {
		return nil, notFound("shift_list", shiftListID, err)
	}
	rows, err := s.rows(ctx, list.ID, contact)
	if err != nil {
		return nil, err
	}

	headers := []string{"Tarih", "Doktor", "Nöbet Türü", "Başlangıç", "Bitiş", "Notlar"}
	if contact != ContactOmit {
		headers = append(headers, "Telefon", "E-posta")
	}
	base := fileBaseName(list)

	var file *ExportFile
	switch format {
	case ExportSpreadsheet:
		data, err := renderSpreadsheet(headers, rows, contact != ContactOmit)
		if err != nil {
			return nil, err
		}
		file = &ExportFile{Name: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Data: data}
	case ExportDelimited:
		data, err := renderDelimited(headers, rows, contact != ContactOmit)
		if err != nil {
			return nil, err
		}
		file = &ExportFile{Name: base + ".csv", ContentType: "text/csv; charset=utf-8", Data: data}
	case ExportPrintable:
		data, err := s.renderPrintable(list, headers, rows, contact != ContactOmit)
		if err != nil {
			return nil, err
		}
		file = &ExportFile{Name: base + ".html", ContentType: "text/html; charset=utf-8", Data: data}
	default:
		return nil, errs.NewValidationError("format", errs.CodeInvalid, "unknown export format %q", format)
	}

	s.auditor.Record(ctx, entity.AuditExport, modelShiftList, list.ID, list.String(), map[string]interface{}{
		"format":  string(format),
		"contact": string(contact),
		"rows":    len(rows),
	}, actor)
	s.logger.Info("Shift list exported", "shiftListID", list.ID, "format", format, "rows", len(rows))
	return file, nil
}

func (s *ExportService) rows(ctx context.Context, listID uint, contact ContactMode) ([]exportRow, error) {
	shifts, err := s.store.Shifts().ListByShiftList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	doctors := map[uint]*entity.Doctor{}
	rows := make([]exportRow, 0, len(shifts))
	for _, shift := range shifts {
		doctor, ok := doctors[shift.DoctorID]
		if !ok {
			doctor, err = s.store.Doctors().GetByID(ctx, shift.DoctorID)
			if err != nil {
				return nil, fmt.Errorf("failed to load doctor %d: %w", shift.DoctorID, err)
			}
			doctors[shift.DoctorID] = doctor
		}

		row := exportRow{
			Date:   shift.Date.Format("02.01.2006"),
			Doctor: doctor.DisplayName(),
			Type:   shift.Type.Label(),
			Notes:  shift.Notes,
		}
		if shift.StartTime != nil {
			row.Start = shift.StartTime.String()
		}
		if shift.EndTime != nil {
			row.End = shift.EndTime.String()
		}
		switch contact {
		case ContactFull:
			row.Phone, row.Email = doctor.Phone, doctor.Email
		case ContactMasked:
			row.Phone, row.Email = doctor.MaskedPhone(), doctor.MaskedEmail()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r exportRow) values(contact bool) []string {
	v := []string{r.Date, r.Doctor, r.Type, r.Start, r.End, r.Notes}
	if contact {
		v = append(v, r.Phone, r.Email)
	}
	return v
}

func renderSpreadsheet(headers []string, rows []exportRow, contact bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "999999", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", toCells(headers)); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for i, row := range rows {
		values := row.values(contact)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, toCells(values)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		for j, v := range values {
			if n := len([]rune(v)); n > widths[j] {
				widths[j] = n
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, float64(min(w, 60)+2)); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(values []string) *[]interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &cells
}

func renderDelimited(headers []string, rows []exportRow, contact bool) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet programs detect UTF-8
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row.values(contact)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) renderPrintable(list *entity.ShiftList, headers []string, rows []exportRow, contact bool) ([]byte, error) {
	var buf bytes.Buffer
	err := printableTemplate.Execute(&buf, map[string]interface{}{
		"Title":     list.Title,
		"Period":    list.StartDate.Format("02.01.2006") + " - " + list.EndDate.Format("02.01.2006"),
		"Headers":   headers,
		"Rows":      rows,
		"Contact":   contact,
		"Generated": s.now().Format("02.01.2006 15:04"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render printable export: %w", err)
	}
	return buf.Bytes(), nil
}

func fileBaseName(list *entity.ShiftList) string {
	name := strings.Trim(slugPattern.ReplaceAllString(utils.FoldTurkish(list.Title), "_"), "_")
	if name == "" {
		name = "nobet_listesi"
	}
	return fmt.Sprintf("%s_%s", name, list.StartDate.Format("2006_01_02"))
}
