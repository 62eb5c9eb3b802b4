package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/tabular"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormDepartmentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "departments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	department := &entity.Department{Name: "Acil Servis", Code: "ACIL_SERVI", Active: true}
	require.NoError(t, repo.Create(context.Background(), department))

	assert.Equal(t, uint(7), department.ID)
	assert.False(t, department.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDepartmentRepository_GetByCodeNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "departments" WHERE code = $1`)).
		WithArgs("KBB", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code"}))

	_, err := repo.GetByCode(context.Background(), "KBB")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDoctorRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormDoctorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "doctors"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &entity.Doctor{GivenName: "Ayşe", FamilyName: "Yılmaz", Active: true})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDoctorRepository_FindByNameWithoutDepartment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormDoctorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "given_name", "family_name", "title", "department_id", "phone", "email", "active"}).
		AddRow(3, "Ayşe", "Yılmaz", "Dr.", nil, "+905321234567", "", true)
	mock.ExpectQuery(`SELECT \* FROM "doctors" WHERE \(given_name = \$1 AND family_name = \$2\) AND department_id IS NULL`).
		WithArgs("Ayşe", "Yılmaz", sqlmock.AnyArg()).
		WillReturnRows(rows)

	doctor, err := repo.FindByName(context.Background(), "Ayşe", "Yılmaz", nil)
	require.NoError(t, err)

	assert.Equal(t, uint(3), doctor.ID)
	assert.Equal(t, "Dr.", doctor.Title)
	assert.Nil(t, doctor.DepartmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDataSourceRepository_GetByIDDecodesMapping(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormDataSourceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "url", "format", "active", "fetch_interval_hours", "last_fetched", "column_mapping", "department_id"}).
		AddRow(5, "Acil", "https://example.org/nobet.csv", "delimited", true, 24, nil, `{"doctor_name": ["Doktor Adı", "Doktor"], "date": "Tarih"}`, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "data_sources" WHERE "data_sources"."id" = $1`)).
		WillReturnRows(rows)

	source, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, tabular.Delimited, source.Format)
	assert.Equal(t, []string{"Doktor Adı", "Doktor"}, source.ColumnMapping[tabular.FieldDoctorName])
	assert.Equal(t, []string{"Tarih"}, source.ColumnMapping[tabular.FieldDate])
	require.NotNil(t, source.DepartmentID)
	assert.Equal(t, uint(2), *source.DepartmentID)
	assert.Nil(t, source.LastFetched)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShiftListRepository_RecomputeBounds(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormShiftListRepository(db)

	minDate := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM "shifts" WHERE shift_list_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"min_date", "max_date"}).AddRow(minDate, maxDate))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "shift_lists" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecomputeBounds(context.Background(), 9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShiftListRepository_RecomputeBoundsEmptyList(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormShiftListRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM "shifts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"min_date", "max_date"}).AddRow(nil, nil))

	require.NoError(t, repo.RecomputeBounds(context.Background(), 9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShiftRepository_FindByKey(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormShiftRepository(db)

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "shift_list_id", "doctor_id", "date", "shift_type", "start_time", "end_time", "notes"}).
		AddRow(11, 4, 3, date, "night", "16:00:00", "08:00:00", "acil")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "shifts" WHERE doctor_id = $1 AND date = $2 AND shift_type = $3`)).
		WithArgs(3, sqlmock.AnyArg(), "night", sqlmock.AnyArg()).
		WillReturnRows(rows)

	shift, err := repo.FindByKey(context.Background(), 3, date, entity.ShiftNight)
	require.NoError(t, err)

	assert.Equal(t, uint(11), shift.ID)
	assert.Equal(t, entity.ShiftNight, shift.Type)
	require.NotNil(t, shift.StartTime)
	assert.Equal(t, "16:00", shift.StartTime.String())
	assert.Equal(t, "08:00", shift.EndTime.String())
	assert.Equal(t, date, shift.Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShiftRepository_DeleteMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "shifts" WHERE "shifts"."id" = $1`)).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 42), repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "departments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	err := store.Transaction(context.Background(), func(tx repository.Store) error {
		if err := tx.Departments().Create(context.Background(), &entity.Department{Name: "KBB", Code: "KBB"}); err != nil {
			return err
		}
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
