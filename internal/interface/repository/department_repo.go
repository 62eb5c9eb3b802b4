package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormDepartmentRepository implements the DepartmentRepository interface
type GormDepartmentRepository struct {
	db *gorm.DB
}

// NewGormDepartmentRepository creates a new GORM department repository
func NewGormDepartmentRepository(db *gorm.DB) repository.DepartmentRepository {
	return &GormDepartmentRepository{
		db: db,
	}
}

// Department GORM model for database mapping
type Department struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"column:name;size:100;not null"`
	Code      string `gorm:"column:code;size:20;uniqueIndex"`
	Active    bool   `gorm:"column:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Department) TableName() string {
	return "departments"
}

func (m *Department) toEntity() *entity.Department {
	return &entity.Department{
		ID:        m.ID,
		Name:      m.Name,
		Code:      m.Code,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func departmentModel(d *entity.Department) *Department {
	return &Department{
		ID:        d.ID,
		Name:      d.Name,
		Code:      d.Code,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Create inserts a department
func (r *GormDepartmentRepository) Create(ctx context.Context, department *entity.Department) error {
	model := departmentModel(department)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	*department = *model.toEntity()
	return nil
}

// Update saves all department fields
func (r *GormDepartmentRepository) Update(ctx context.Context, department *entity.Department) error {
	model := departmentModel(department)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	department.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a department after detaching doctors, shift lists and sources from it
func (r *GormDepartmentRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	for _, model := range []interface{}{&Doctor{}, &ShiftList{}, &DataSource{}} {
		if err := db.Model(model).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
			return err
		}
	}
	result := db.Delete(&Department{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID finds a department by id
func (r *GormDepartmentRepository) GetByID(ctx context.Context, id uint) (*entity.Department, error) {
	var department Department
	if err := r.db.WithContext(ctx).First(&department, id).Error; err != nil {
		return nil, translateError(err)
	}
	return department.toEntity(), nil
}

// GetByCode finds a department by its unique code
func (r *GormDepartmentRepository) GetByCode(ctx context.Context, code string) (*entity.Department, error) {
	var department Department
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&department).Error; err != nil {
		return nil, translateError(err)
	}
	return department.toEntity(), nil
}

// List returns all departments ordered by name
func (r *GormDepartmentRepository) List(ctx context.Context) ([]*entity.Department, error) {
	var departments []Department
	if err := r.db.WithContext(ctx).Order("name").Find(&departments).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Department, 0, len(departments))
	for i := range departments {
		out = append(out, departments[i].toEntity())
	}
	return out, nil
}
