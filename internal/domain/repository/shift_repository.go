package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
)

// ShiftRepository defines the interface for shift operations
type ShiftRepository interface {
	// Create returns ErrDuplicate when the doctor already has a shift of that type on that date
	Create(ctx context.Context, shift *entity.Shift) error
	Update(ctx context.Context, shift *entity.Shift) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Shift, error)
	FindByKey(ctx context.Context, doctorID uint, date time.Time, shiftType entity.ShiftType) (*entity.Shift, error)
	ListByDoctorAndDate(ctx context.Context, doctorID uint, date time.Time) ([]*entity.Shift, error)
	ListByDoctor(ctx context.Context, doctorID uint) ([]*entity.Shift, error)
	// ListByShiftList returns shifts ordered by date, start time and id
	ListByShiftList(ctx context.Context, shiftListID uint) ([]*entity.Shift, error)
}
