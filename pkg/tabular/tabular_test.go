package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"roster-service/internal/domain/errs"
)

func extractionKind(t *testing.T, err error) errs.ExtractionKind {
	t.Helper()
	var ee *errs.ExtractionError
	require.True(t, errors.As(err, &ee), "expected ExtractionError, got %v", err)
	return ee.Kind
}

func TestCell_AsDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, c := range []Cell{
		Text("15.01.2024"),
		Text("15/01/2024"),
		Text("2024-01-15"),
		Text("15 Ocak 2024"),
		Text("15.01.2024 Pazartesi"),
		Number(45306),
		Date(time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)),
	} {
		got, err := c.AsDate()
		require.NoError(t, err, c.String())
		assert.Equal(t, want, got, c.String())
	}

	for _, c := range []Cell{Empty(), Text("yarın"), Text("32.01.2024"), Number(-4)} {
		_, err := c.AsDate()
		assert.Error(t, err, c.String())
	}
}

func TestCell_AsClock(t *testing.T) {
	h, m, err := Text("08:30").AsClock()
	require.NoError(t, err)
	assert.Equal(t, []int{8, 30}, []int{h, m})

	h, m, err = Number(0.75).AsClock()
	require.NoError(t, err)
	assert.Equal(t, []int{18, 0}, []int{h, m})

	_, _, err = Text("25:00").AsClock()
	assert.Error(t, err)
	_, _, err = Text("sabah").AsClock()
	assert.Error(t, err)
}

func TestCell_StringKeepsLongNumbers(t *testing.T) {
	assert.Equal(t, "5321234567", Number(5321234567).String())
	assert.True(t, Text("   ").IsEmpty())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, PaginatedDocument, f)

	_, err = ParseFormat("docx")
	assert.Equal(t, errs.UnsupportedFormat, extractionKind(t, err))

	_, err = FormatFromFileName("roster.xls")
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, errs.CodeUnsupportedFile, ve.Code)
}

func TestExtract_Delimited(t *testing.T) {
	payload := []byte("\xEF\xBB\xBFDoktor;Tarih;Not\nDr. Ali Veli;15.01.2024;\"a;b\"\n;;\nUzm. Dr. Ayşe Kaya;16.01.2024\n")

	table, err := Extract(payload, Delimited)
	require.NoError(t, err)

	assert.Equal(t, []string{"Doktor", "Tarih", "Not"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "a;b", table.Rows[0].Get("Not").String())
	assert.Equal(t, "Uzm. Dr. Ayşe Kaya", table.Rows[1].Get("Doktor").String())
	assert.True(t, table.Rows[1].Get("Not").IsEmpty())
}

func TestExtract_DelimitedLegacyEncoding(t *testing.T) {
	encoded, err := charmap.Windows1254.NewEncoder().String("Doktor,Tarih\nDr. Ayşe Işık,15.01.2024\n")
	require.NoError(t, err)

	table, err := Extract([]byte(encoded), Delimited)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ayşe Işık", table.Rows[0].Get("Doktor").String())
}

func TestExtract_DelimitedBlankHeaders(t *testing.T) {
	table, err := Extract([]byte("Doktor,,Doktor\nA,B,C\n"), Delimited)
	require.NoError(t, err)
	assert.Equal(t, []string{"Doktor", "column_2", "column_3"}, table.Headers)
}

func TestExtract_EmptyPayload(t *testing.T) {
	_, err := Extract(nil, Delimited)
	assert.Equal(t, errs.NoTableFound, extractionKind(t, err))

	_, err = Extract([]byte("x"), Format("docx"))
	assert.Equal(t, errs.UnsupportedFormat, extractionKind(t, err))
}

func TestExtract_Spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Doktor"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "Tarih"))
	require.NoError(t, f.SetCellValue(sheet, "C1", "Telefon"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Dr. Ali Veli"))
	require.NoError(t, f.SetCellValue(sheet, "B2", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "C2", 5321234567))
	require.NoError(t, f.SetCellValue(sheet, "A3", "Dr. Ayşe Kaya"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "16.01.2024"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Extract(buf.Bytes(), Spreadsheet)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	date := table.Rows[0].Get("Tarih")
	assert.Equal(t, KindDate, date.Kind)
	got, err := date.AsDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)

	phone := table.Rows[0].Get("Telefon")
	assert.Equal(t, KindNumber, phone.Kind)
	assert.Equal(t, "5321234567", phone.String())

	assert.Equal(t, KindText, table.Rows[1].Get("Tarih").Kind)
	assert.Equal(t, 3, table.Rows[1].Number)
}

func TestExtract_SpreadsheetCorrupt(t *testing.T) {
	_, err := Extract([]byte("PK\x03\x04 definitely not a workbook"), Spreadsheet)
	assert.Equal(t, errs.CorruptPayload, extractionKind(t, err))
}

func TestExtract_HTMLTable(t *testing.T) {
	payload := []byte(`<html><body><h1>Ocak Nöbet</h1>
<table>
  <thead><tr><th>Doktor</th><th>Tarih</th><th colspan="2">Saat</th></tr></thead>
  <tbody>
    <tr><td><b>Dr.</b> Ali<br>Veli</td><td>15.01.2024</td><td>08:00</td><td>16:00</td></tr>
    <tr><td>Dr. Ayşe Kaya</td><td>16.01.2024</td><td></td><td></td></tr>
  </tbody>
</table>
<table><tr><th>Other</th></tr></table>
</body></html>`)

	table, err := Extract(payload, HTMLTable)
	require.NoError(t, err)

	assert.Equal(t, []string{"Doktor", "Tarih", "Saat", "column_4"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Dr. Ali Veli", table.Rows[0].Get("Doktor").String())
	assert.Equal(t, "16:00", table.Rows[0].Get("column_4").String())
}

func TestExtract_HTMLWithoutTable(t *testing.T) {
	_, err := Extract([]byte("<html><body><p>yok</p></body></html>"), HTMLTable)
	assert.Equal(t, errs.NoTableFound, extractionKind(t, err))
}

func TestExtract_PDFCorrupt(t *testing.T) {
	_, err := Extract([]byte("this is not a pdf"), PaginatedDocument)
	assert.Equal(t, errs.CorruptPayload, extractionKind(t, err))
}

// buildPDF writes a minimal PDF with one page per entry; each page lists rows of cells, every cell
// placed with its own text matrix so columns line up across pages
func buildPDF(pages [][][]string) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, rows := range pages {
		var content strings.Builder
		for r, row := range rows {
			for c, text := range row {
				fmt.Fprintf(&content, "BT /F1 10 Tf 1 0 0 1 %d %d Tm (%s) Tj ET\n", 50+150*c, 750-20*r, text)
			}
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtract_PDFAcrossPages(t *testing.T) {
	header := []string{"Doktor", "Tarih", "Tip"}
	payload := buildPDF([][][]string{
		{
			header,
			{"Dr. Ali Veli", "15.01.2024", "Gece"},
			{"Can Ak", "16.01.2024", "Gunduz"},
		},
		{
			header,
			{"Ece Su", "17.01.2024", "Gece"},
		},
	})
	require.True(t, Sniff(payload, PaginatedDocument))

	table, err := Extract(payload, PaginatedDocument)
	require.NoError(t, err)

	assert.Equal(t, header, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Dr. Ali Veli", table.Rows[0].Get("Doktor").String())
	assert.Equal(t, "Gunduz", table.Rows[1].Get("Tip").String())
	assert.Equal(t, "Ece Su", table.Rows[2].Get("Doktor").String())
	assert.Equal(t, "17.01.2024", table.Rows[2].Get("Tarih").String())
}

func run(x, w float64, s string) textRun {
	return textRun{X: x, W: w, FontSize: 10, S: s}
}

func TestTableFromLines(t *testing.T) {
	header := []textRun{run(50, 30, "Doktor"), run(200, 25, "Tarih"), run(300, 20, "Tip")}
	lines := [][]textRun{
		{run(50, 120, "Nöbet Listesi Ocak 2024")},
		header,
		{run(50, 12, "Dr."), run(64, 15, "Ali"), run(81, 20, "Veli"), run(201, 50, "15.01.2024"), run(298, 20, "Gece")},
		header,
		{run(52, 80, "Dr. Ayşe Kaya"), run(200, 50, "16.01.2024")},
	}

	table, err := tableFromLines(lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"Doktor", "Tarih", "Tip"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Dr. Ali Veli", table.Rows[0].Get("Doktor").String())
	assert.Equal(t, "Gece", table.Rows[0].Get("Tip").String())
	assert.Equal(t, "16.01.2024", table.Rows[1].Get("Tarih").String())
	assert.True(t, table.Rows[1].Get("Tip").IsEmpty())
}

func TestTableFromLines_NoHeader(t *testing.T) {
	_, err := tableFromLines([][]textRun{{run(50, 100, "only a title")}})
	assert.Equal(t, errs.NoTableFound, extractionKind(t, err))
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]byte(`{"doctor_name": ["Doktor Adı", "Doktor"], "date": "Tarih", "phone": "Telefon"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Doktor Adı", "Doktor"}, m[FieldDoctorName])
	assert.Equal(t, []string{"Tarih"}, m[FieldDate])

	_, err = ParseMapping([]byte(`{"doctor_name": 5}`))
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, errs.CodeMalformedMapping, ve.Code)

	_, err = ParseMapping([]byte(`{"doctor_name": "Doktor"}`))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, errs.CodeRequired, ve.Code)
	assert.Contains(t, ve.Message, "date")
}

func TestMap(t *testing.T) {
	source := &Table{
		Headers: []string{"Doktor", "Doktor Adı", "TARİH", "Ignored"},
		Rows: []Row{{Number: 2, Cells: map[string]Cell{
			"Doktor":     Text("short"),
			"Doktor Adı": Text("Dr. Ali Veli"),
			"TARİH":      Text("15.01.2024"),
			"Ignored":    Text("x"),
		}}},
	}
	m := Mapping{
		FieldDate:       {"tarih", "TARİH"},
		FieldDoctorName: {"Doktor Adı", "Doktor"},
		FieldPhone:      {"Telefon"},
	}

	mapped := Map(source, m)

	assert.Equal(t, []string{FieldDoctorName, FieldDate}, mapped.Headers)
	assert.Equal(t, "Dr. Ali Veli", mapped.Rows[0].Get(FieldDoctorName).String())
	assert.Equal(t, "15.01.2024", mapped.Rows[0].Get(FieldDate).String())
	assert.Equal(t, 2, mapped.Rows[0].Number)
	assert.Empty(t, MissingRequired(mapped))

	mapped = Map(source, Mapping{FieldDoctorName: {"Doktor"}})
	assert.Equal(t, []string{FieldDate}, MissingRequired(mapped))
}
