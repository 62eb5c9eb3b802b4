package repository

import (
	"context"
	"errors"

	"roster-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormStore implements repository.Store on a GORM connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM backed store. The connection should be opened with TranslateError
// so unique violations surface as repository.ErrDuplicate.
func NewGormStore(db *gorm.DB) repository.Store {
	return &GormStore{db: db}
}

// Models lists every GORM model owned by the store, for migrations
func Models() []interface{} {
	return []interface{}{
		&Department{},
		&Doctor{},
		&DataSource{},
		&FetchLog{},
		&ShiftList{},
		&Shift{},
	}
}

func (s *GormStore) Departments() repository.DepartmentRepository {
	return NewGormDepartmentRepository(s.db)
}

func (s *GormStore) Doctors() repository.DoctorRepository {
	return NewGormDoctorRepository(s.db)
}

func (s *GormStore) DataSources() repository.DataSourceRepository {
	return NewGormDataSourceRepository(s.db)
}

func (s *GormStore) FetchLogs() repository.FetchLogRepository {
	return NewGormFetchLogRepository(s.db)
}

func (s *GormStore) ShiftLists() repository.ShiftListRepository {
	return NewGormShiftListRepository(s.db)
}

func (s *GormStore) Shifts() repository.ShiftRepository {
	return NewGormShiftRepository(s.db)
}

// Transaction runs fn in a database transaction; GORM turns nested calls into savepoints
func (s *GormStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translateError maps GORM sentinel errors onto the repository ones
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}
