package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormShiftRepository implements the ShiftRepository interface
type GormShiftRepository struct {
	db *gorm.DB
}

// NewGormShiftRepository creates a new GORM shift repository
func NewGormShiftRepository(db *gorm.DB) repository.ShiftRepository {
	return &GormShiftRepository{
		db: db,
	}
}

// Shift GORM model for database mapping; (doctor, date, type) is unique
type Shift struct {
	ID          uint            `gorm:"primaryKey"`
	ShiftListID uint            `gorm:"column:shift_list_id;not null;index"`
	DoctorID    uint            `gorm:"column:doctor_id;not null;uniqueIndex:idx_shift_identity,priority:1"`
	Date        datatypes.Date  `gorm:"column:date;type:date;not null;uniqueIndex:idx_shift_identity,priority:2"`
	Type        string          `gorm:"column:shift_type;size:16;not null;uniqueIndex:idx_shift_identity,priority:3"`
	StartTime   *datatypes.Time `gorm:"column:start_time;type:time"`
	EndTime     *datatypes.Time `gorm:"column:end_time;type:time"`
	Notes       string          `gorm:"column:notes;type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (Shift) TableName() string {
	return "shifts"
}

func (m *Shift) toEntity() *entity.Shift {
	return &entity.Shift{
		ID:          m.ID,
		ShiftListID: m.ShiftListID,
		DoctorID:    m.DoctorID,
		Date:        time.Time(m.Date),
		Type:        entity.ShiftType(m.Type),
		StartTime:   clockFromTime(m.StartTime),
		EndTime:     clockFromTime(m.EndTime),
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func shiftModel(s *entity.Shift) *Shift {
	return &Shift{
		ID:          s.ID,
		ShiftListID: s.ShiftListID,
		DoctorID:    s.DoctorID,
		Date:        datatypes.Date(s.Date),
		Type:        string(s.Type),
		StartTime:   timeFromClock(s.StartTime),
		EndTime:     timeFromClock(s.EndTime),
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func clockFromTime(t *datatypes.Time) *entity.ClockTime {
	if t == nil {
		return nil
	}
	d := time.Duration(*t)
	return &entity.ClockTime{Hour: int(d / time.Hour), Minute: int(d % time.Hour / time.Minute)}
}

func timeFromClock(c *entity.ClockTime) *datatypes.Time {
	if c == nil {
		return nil
	}
	t := datatypes.NewTime(c.Hour, c.Minute, 0, 0)
	return &t
}

// Create inserts a shift
func (r *GormShiftRepository) Create(ctx context.Context, shift *entity.Shift) error {
	model := shiftModel(shift)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	*shift = *model.toEntity()
	return nil
}

// Update saves all shift fields
func (r *GormShiftRepository) Update(ctx context.Context, shift *entity.Shift) error {
	model := shiftModel(shift)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	shift.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a shift
func (r *GormShiftRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Shift{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID finds a shift by id
func (r *GormShiftRepository) GetByID(ctx context.Context, id uint) (*entity.Shift, error) {
	var shift Shift
	if err := r.db.WithContext(ctx).First(&shift, id).Error; err != nil {
		return nil, translateError(err)
	}
	return shift.toEntity(), nil
}

// FindByKey finds the shift identified by doctor, date and type
func (r *GormShiftRepository) FindByKey(ctx context.Context, doctorID uint, date time.Time, shiftType entity.ShiftType) (*entity.Shift, error) {
	var shift Shift
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND shift_type = ?", doctorID, datatypes.Date(date), string(shiftType)).
		First(&shift).Error
	if err != nil {
		return nil, translateError(err)
	}
	return shift.toEntity(), nil
}

// ListByDoctorAndDate returns a doctor's shifts on one date
func (r *GormShiftRepository) ListByDoctorAndDate(ctx context.Context, doctorID uint, date time.Time) ([]*entity.Shift, error) {
	return r.find(r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, datatypes.Date(date)).
		Order("start_time, id"))
}

// ListByDoctor returns all of a doctor's shifts by date
func (r *GormShiftRepository) ListByDoctor(ctx context.Context, doctorID uint) ([]*entity.Shift, error) {
	return r.find(r.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Order("date, start_time, id"))
}

// ListByShiftList returns a list's shifts by date and start time
func (r *GormShiftRepository) ListByShiftList(ctx context.Context, shiftListID uint) ([]*entity.Shift, error) {
	return r.find(r.db.WithContext(ctx).Where("shift_list_id = ?", shiftListID).Order("date, start_time, id"))
}

func (r *GormShiftRepository) find(query *gorm.DB) ([]*entity.Shift, error) {
	var shifts []Shift
	if err := query.Find(&shifts).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Shift, 0, len(shifts))
	for i := range shifts {
		out = append(out, shifts[i].toEntity())
	}
	return out, nil
}
