package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormShiftListRepository implements the ShiftListRepository interface
type GormShiftListRepository struct {
	db *gorm.DB
}

// NewGormShiftListRepository creates a new GORM shift list repository
func NewGormShiftListRepository(db *gorm.DB) repository.ShiftListRepository {
	return &GormShiftListRepository{
		db: db,
	}
}

// ShiftList GORM model for database mapping
type ShiftList struct {
	ID           uint           `gorm:"primaryKey"`
	UUID         string         `gorm:"column:uuid;type:uuid;uniqueIndex;not null"`
	Title        string         `gorm:"column:title;size:200;not null"`
	DepartmentID *uint          `gorm:"column:department_id;index"`
	StartDate    datatypes.Date `gorm:"column:start_date;type:date"`
	EndDate      datatypes.Date `gorm:"column:end_date;type:date"`
	SourceType   string         `gorm:"column:source_type;size:32"`
	SourceURL    string         `gorm:"column:source_url;size:500"`
	SourceFile   string         `gorm:"column:source_file;size:255"`
	SourceID     *uint          `gorm:"column:source_id;index"`
	FetchLogID   *uint          `gorm:"column:fetch_log_id"`
	IsPublished  bool           `gorm:"column:is_published"`
	CreatedBy    string         `gorm:"column:created_by;size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name
func (ShiftList) TableName() string {
	return "shift_lists"
}

func (m *ShiftList) toEntity() *entity.ShiftList {
	return &entity.ShiftList{
		ID:           m.ID,
		UUID:         m.UUID,
		Title:        m.Title,
		DepartmentID: m.DepartmentID,
		StartDate:    time.Time(m.StartDate),
		EndDate:      time.Time(m.EndDate),
		SourceType:   m.SourceType,
		SourceURL:    m.SourceURL,
		SourceFile:   m.SourceFile,
		SourceID:     m.SourceID,
		FetchLogID:   m.FetchLogID,
		IsPublished:  m.IsPublished,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func shiftListModel(l *entity.ShiftList) *ShiftList {
	return &ShiftList{
		ID:           l.ID,
		UUID:         l.UUID,
		Title:        l.Title,
		DepartmentID: l.DepartmentID,
		StartDate:    datatypes.Date(l.StartDate),
		EndDate:      datatypes.Date(l.EndDate),
		SourceType:   l.SourceType,
		SourceURL:    l.SourceURL,
		SourceFile:   l.SourceFile,
		SourceID:     l.SourceID,
		FetchLogID:   l.FetchLogID,
		IsPublished:  l.IsPublished,
		CreatedBy:    l.CreatedBy,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// Create inserts a shift list, assigning a UUID when missing
func (r *GormShiftListRepository) Create(ctx context.Context, list *entity.ShiftList) error {
	if list.UUID == "" {
		list.UUID = uuid.NewString()
	}
	model := shiftListModel(list)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	*list = *model.toEntity()
	return nil
}

// Update saves all shift list fields
func (r *GormShiftListRepository) Update(ctx context.Context, list *entity.ShiftList) error {
	model := shiftListModel(list)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	list.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a shift list and its shifts
func (r *GormShiftListRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("shift_list_id = ?", id).Delete(&Shift{}).Error; err != nil {
		return err
	}
	result := db.Delete(&ShiftList{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID finds a shift list by id
func (r *GormShiftListRepository) GetByID(ctx context.Context, id uint) (*entity.ShiftList, error) {
	var list ShiftList
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, translateError(err)
	}
	return list.toEntity(), nil
}

// List returns shift lists, latest start date first
func (r *GormShiftListRepository) List(ctx context.Context, filter repository.ShiftListFilter) ([]*entity.ShiftList, error) {
	query := r.db.WithContext(ctx).Order("start_date DESC, id DESC")
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var lists []ShiftList
	if err := query.Find(&lists).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.ShiftList, 0, len(lists))
	for i := range lists {
		out = append(out, lists[i].toEntity())
	}
	return out, nil
}

type dateBounds struct {
	MinDate *time.Time
	MaxDate *time.Time
}

// RecomputeBounds sets the list's dates to the min and max of its shifts; empty lists are left as they are
func (r *GormShiftListRepository) RecomputeBounds(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)

	var bounds dateBounds
	err := db.Model(&Shift{}).
		Select("MIN(date) AS min_date, MAX(date) AS max_date").
		Where("shift_list_id = ?", id).
		Scan(&bounds).Error
	if err != nil {
		return err
	}
	if bounds.MinDate == nil || bounds.MaxDate == nil {
		return nil
	}

	result := db.Model(&ShiftList{}).Where("id = ?", id).Updates(map[string]interface{}{
		"start_date": datatypes.Date(*bounds.MinDate),
		"end_date":   datatypes.Date(*bounds.MaxDate),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
