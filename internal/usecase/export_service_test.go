package usecase

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newExportFixture(t *testing.T) (*fixture, *ExportService, *entity.ShiftList) {
	f := newFixture(t)
	ctx := context.Background()

	list := &entity.ShiftList{Title: "Acil <Ocak>", StartDate: date(1), EndDate: date(31)}
	require.NoError(t, f.store.ShiftLists().Create(ctx, list))
	doctor := &entity.Doctor{Title: "Dr.", GivenName: "Ayşe", FamilyName: "Yılmaz", Phone: "+905321234567", Email: "ayse@hastane.gov.tr"}
	require.NoError(t, f.store.Doctors().Create(ctx, doctor))
	require.NoError(t, f.store.Shifts().Create(ctx, &entity.Shift{
		ShiftListID: list.ID, DoctorID: doctor.ID, Date: date(15), Type: entity.ShiftNight,
		StartTime: clock(16, 0), EndTime: clock(8, 0), Notes: "acil",
	}))
	require.NoError(t, f.store.Shifts().Create(ctx, &entity.Shift{
		ShiftListID: list.ID, DoctorID: doctor.ID, Date: date(2), Type: entity.ShiftNormal,
	}))

	return f, NewExportService(f.store, f.auditor(), f.log), list
}

func TestExportService_Delimited(t *testing.T) {
	f, svc, list := newExportFixture(t)

	file, err := svc.Export(context.Background(), list.ID, ExportDelimited, ContactMasked, testActor)
	require.NoError(t, err)
	assert.Equal(t, "acil_ocak_2024_01_01.csv", file.Name)

	text := strings.TrimPrefix(string(file.Data), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Tarih,Doktor,Nöbet Türü,Başlangıç,Bitiş,Notlar,Telefon,E-posta", lines[0])
	assert.Equal(t, "02.01.2024,Dr. Ayşe Yılmaz,Normal,,,,*********4567,a**e@hastane.gov.tr", lines[1])
	assert.Equal(t, "15.01.2024,Dr. Ayşe Yılmaz,Gece,16:00,08:00,acil,*********4567,a**e@hastane.gov.tr", lines[2])
	assert.Equal(t, []string{"export:ShiftList"}, f.actions())
}

func TestExportService_SpreadsheetOmitsContact(t *testing.T) {
	_, svc, list := newExportFixture(t)

	file, err := svc.Export(context.Background(), list.ID, ExportSpreadsheet, ContactOmit, testActor)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Tarih", "Doktor", "Nöbet Türü", "Başlangıç", "Bitiş", "Notlar"}, rows[0])
	assert.Equal(t, "Gece", rows[2][2])
}

func TestExportService_Printable(t *testing.T) {
	_, svc, list := newExportFixture(t)

	file, err := svc.Export(context.Background(), list.ID, ExportPrintable, ContactFull, testActor)
	require.NoError(t, err)

	html := string(file.Data)
	assert.Contains(t, html, "<title>Acil &lt;Ocak&gt;</title>")
	assert.Contains(t, html, "+905321234567")
	assert.Contains(t, html, "<th>Telefon</th>")
	assert.Contains(t, html, "01.01.2024 - 31.01.2024")
}

func TestExportService_Errors(t *testing.T) {
	_, svc, list := newExportFixture(t)
	ctx := context.Background()
	var ve *errs.ValidationError

	_, err := svc.Export(ctx, list.ID, "docx", ContactOmit, testActor)
	require.ErrorAs(t, err, &ve)
	_, err = svc.Export(ctx, list.ID, ExportDelimited, "partial", testActor)
	require.ErrorAs(t, err, &ve)
	_, err = svc.Export(ctx, 999, ExportDelimited, ContactOmit, testActor)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeNotFound, ve.Code)
}
