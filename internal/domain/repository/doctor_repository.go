package repository

import (
	"context"

	"roster-service/internal/domain/entity"
)

// DoctorFilter narrows doctor listings
type DoctorFilter struct {
	DepartmentID *uint
	ActiveOnly   bool
	Search       string
}

// DoctorRepository defines the interface for doctor operations
type DoctorRepository interface {
	// Create returns ErrDuplicate when a doctor with the same names exists in the department
	Create(ctx context.Context, doctor *entity.Doctor) error
	Update(ctx context.Context, doctor *entity.Doctor) error
	// Delete removes the doctor together with the doctor's shifts
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Doctor, error)
	FindByName(ctx context.Context, givenName, familyName string, departmentID *uint) (*entity.Doctor, error)
	List(ctx context.Context, filter DoctorFilter) ([]*entity.Doctor, error)
}
