package usecase

import (
	"context"
	"testing"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/pkg/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewDepartmentService(f.store, f.auditor(), f.log)

	dept, err := svc.Create(ctx, "Göğüs Hastalıkları", "", testActor)
	require.NoError(t, err)
	assert.Equal(t, "GOGUS_HAST", dept.Code)
	assert.True(t, dept.Active)

	_, err = svc.Create(ctx, "Göğüs Hastalıkları Servisi", "", testActor)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeDuplicate, ve.Code)

	_, err = svc.Create(ctx, "  ", "", testActor)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeRequired, ve.Code)

	kbb, err := svc.Create(ctx, "Kulak Burun Boğaz", "kbb", testActor)
	require.NoError(t, err)
	assert.Equal(t, "KBB", kbb.Code)

	doctor := &entity.Doctor{GivenName: "Ali", FamilyName: "Veli", DepartmentID: &kbb.ID}
	require.NoError(t, f.store.Doctors().Create(ctx, doctor))
	require.NoError(t, svc.Delete(ctx, kbb.ID, testActor))

	got, err := f.store.Doctors().GetByID(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DepartmentID)
	assert.Equal(t, []string{"create:Department", "create:Department", "delete:Department"}, f.actions())
}

func TestDoctorService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewDoctorService(f.store, f.auditor(), f.log)

	doctor, err := svc.Create(ctx, DoctorInput{GivenName: " Ayşe ", FamilyName: "Yılmaz", Phone: "532 123 45 67", Email: " ayse@x.org ", Active: true}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Ayşe", doctor.GivenName)
	assert.Equal(t, "+905321234567", doctor.Phone)
	assert.Equal(t, "ayse@x.org", doctor.Email)

	_, err = svc.Create(ctx, DoctorInput{GivenName: "Ayşe", FamilyName: "Yılmaz"}, testActor)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeDuplicate, ve.Code)

	_, err = svc.Update(ctx, doctor.ID, DoctorInput{GivenName: "Ayşe", FamilyName: "Yılmaz", Phone: "12-34"}, testActor)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeUnrecognizedPhoneFormat, ve.Code)

	updated, err := svc.Update(ctx, doctor.ID, DoctorInput{GivenName: "Ayşe", FamilyName: "Kaya", Active: true}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Kaya", updated.FamilyName)
	assert.Empty(t, updated.Phone)

	entries, err := f.audit.ListByObject(ctx, "Doctor", itoa(doctor.ID), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditUpdate, entries[0].Action)
	assert.Equal(t, "Yılmaz", entries[0].Changes["old"].(map[string]interface{})["familyName"])
	assert.Equal(t, "42", entries[0].Actor.UserID)
}

func TestDoctorService_DeleteRecomputesBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewDoctorService(f.store, f.auditor(), f.log)

	list := &entity.ShiftList{Title: "Ocak", StartDate: date(1), EndDate: date(31)}
	require.NoError(t, f.store.ShiftLists().Create(ctx, list))
	keep := &entity.Doctor{GivenName: "Ali", FamilyName: "Veli"}
	gone := &entity.Doctor{GivenName: "Can", FamilyName: "Ak"}
	require.NoError(t, f.store.Doctors().Create(ctx, keep))
	require.NoError(t, f.store.Doctors().Create(ctx, gone))
	require.NoError(t, f.store.Shifts().Create(ctx, &entity.Shift{ShiftListID: list.ID, DoctorID: keep.ID, Date: date(10), Type: entity.ShiftNormal}))
	require.NoError(t, f.store.Shifts().Create(ctx, &entity.Shift{ShiftListID: list.ID, DoctorID: gone.ID, Date: date(20), Type: entity.ShiftNormal}))

	require.NoError(t, svc.Delete(ctx, gone.ID, testActor))

	got, err := f.store.ShiftLists().GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, date(10), got.EndDate)
}

func TestDataSourceService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewDataSourceService(f.store, f.auditor(), f.log)

	valid := DataSourceInput{
		Name:               "Acil",
		URL:                "https://hastane.example/nobet.xlsx",
		Format:             "xlsx",
		Active:             true,
		FetchIntervalHours: 12,
		ColumnMapping:      []byte(`{"doctor_name": ["Doktor", "Hekim"], "date": "Tarih"}`),
	}
	source, err := svc.Create(ctx, valid, testActor)
	require.NoError(t, err)
	assert.Equal(t, tabular.Spreadsheet, source.Format)
	assert.Equal(t, []string{"Tarih"}, source.ColumnMapping[tabular.FieldDate])
	assert.Equal(t, "42", source.CreatedBy)

	tests := []struct {
		name  string
		edit  func(in *DataSourceInput)
		field string
	}{
		{"scheme", func(in *DataSourceInput) { in.URL = "ftp://x/y.csv" }, "url"},
		{"format", func(in *DataSourceInput) { in.Format = "docx" }, "format"},
		{"interval", func(in *DataSourceInput) { in.FetchIntervalHours = 0 }, "fetch_interval_hours"},
		{"mapping without date", func(in *DataSourceInput) { in.ColumnMapping = []byte(`{"doctor_name": "Doktor"}`) }, "column_mapping"},
		{"malformed mapping", func(in *DataSourceInput) { in.ColumnMapping = []byte(`{"date": 5}`) }, "column_mapping"},
		{"unknown department", func(in *DataSourceInput) { id := uint(999); in.DepartmentID = &id }, "department"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := svc.Update(ctx, source.ID, in, testActor)
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	require.NoError(t, svc.Delete(ctx, source.ID, testActor))
	_, err = f.store.DataSources().GetByID(ctx, source.ID)
	assert.Error(t, err)
}

func TestNewServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	services := NewServices(f.store, f.auditor(), nil, f.log)

	dept, err := services.Departments.Create(ctx, "Acil Servis", "", testActor)
	require.NoError(t, err)
	doctor, err := services.Doctors.Create(ctx, DoctorInput{GivenName: "Ali", FamilyName: "Veli", DepartmentID: &dept.ID, Active: true}, testActor)
	require.NoError(t, err)
	list, err := services.Shifts.CreateShiftList(ctx, ShiftListInput{Title: "Ocak", DepartmentID: &dept.ID, StartDate: date(1), EndDate: date(31)}, testActor)
	require.NoError(t, err)
	_, err = services.Shifts.CreateShift(ctx, ShiftInput{ShiftListID: list.ID, DoctorID: doctor.ID, Date: date(3)}, testActor)
	require.NoError(t, err)

	file, err := services.Exports.Export(ctx, list.ID, ExportDelimited, ContactOmit, testActor)
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "03.01.2024,Ali Veli,Normal")
	assert.NotNil(t, services.DataSources)
	assert.Nil(t, services.Orchestrator)
}
