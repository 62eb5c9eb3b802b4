package repository

import (
	"context"
	"strings"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormDoctorRepository implements the DoctorRepository interface
type GormDoctorRepository struct {
	db *gorm.DB
}

// NewGormDoctorRepository creates a new GORM doctor repository
func NewGormDoctorRepository(db *gorm.DB) repository.DoctorRepository {
	return &GormDoctorRepository{
		db: db,
	}
}

// Doctor GORM model for database mapping. The identity index over
// (given_name, family_name, department) is created by the migration since it needs COALESCE.
type Doctor struct {
	ID           uint   `gorm:"primaryKey"`
	GivenName    string `gorm:"column:given_name;size:100;not null"`
	FamilyName   string `gorm:"column:family_name;size:100;not null;index"`
	Title        string `gorm:"column:title;size:50"`
	DepartmentID *uint  `gorm:"column:department_id;index"`
	Phone        string `gorm:"column:phone;size:20"`
	Email        string `gorm:"column:email;size:254"`
	Active       bool   `gorm:"column:active"`
	ExternalID   string `gorm:"column:external_id;size:100;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name
func (Doctor) TableName() string {
	return "doctors"
}

func (m *Doctor) toEntity() *entity.Doctor {
	return &entity.Doctor{
		ID:           m.ID,
		GivenName:    m.GivenName,
		FamilyName:   m.FamilyName,
		Title:        m.Title,
		DepartmentID: m.DepartmentID,
		Phone:        m.Phone,
		Email:        m.Email,
		Active:       m.Active,
		ExternalID:   m.ExternalID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func doctorModel(d *entity.Doctor) *Doctor {
	return &Doctor{
		ID:           d.ID,
		GivenName:    d.GivenName,
		FamilyName:   d.FamilyName,
		Title:        d.Title,
		DepartmentID: d.DepartmentID,
		Phone:        d.Phone,
		Email:        d.Email,
		Active:       d.Active,
		ExternalID:   d.ExternalID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Create inserts a doctor
func (r *GormDoctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	model := doctorModel(doctor)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	*doctor = *model.toEntity()
	return nil
}

// Update saves all doctor fields
func (r *GormDoctorRepository) Update(ctx context.Context, doctor *entity.Doctor) error {
	model := doctorModel(doctor)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	doctor.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a doctor and the doctor's shifts
func (r *GormDoctorRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("doctor_id = ?", id).Delete(&Shift{}).Error; err != nil {
		return err
	}
	result := db.Delete(&Doctor{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID finds a doctor by id
func (r *GormDoctorRepository) GetByID(ctx context.Context, id uint) (*entity.Doctor, error) {
	var doctor Doctor
	if err := r.db.WithContext(ctx).First(&doctor, id).Error; err != nil {
		return nil, translateError(err)
	}
	return doctor.toEntity(), nil
}

// FindByName finds a doctor by exact names within a department; a nil department matches doctors without one
func (r *GormDoctorRepository) FindByName(ctx context.Context, givenName, familyName string, departmentID *uint) (*entity.Doctor, error) {
	query := r.db.WithContext(ctx).Where("given_name = ? AND family_name = ?", givenName, familyName)
	if departmentID == nil {
		query = query.Where("department_id IS NULL")
	} else {
		query = query.Where("department_id = ?", *departmentID)
	}

	var doctor Doctor
	if err := query.First(&doctor).Error; err != nil {
		return nil, translateError(err)
	}
	return doctor.toEntity(), nil
}

// List returns doctors ordered by family and given name
func (r *GormDoctorRepository) List(ctx context.Context, filter repository.DoctorFilter) ([]*entity.Doctor, error) {
	query := r.db.WithContext(ctx).Order("family_name, given_name")
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("given_name ILIKE ? OR family_name ILIKE ? OR phone LIKE ? OR email ILIKE ?", like, like, like, like)
	}

	var doctors []Doctor
	if err := query.Find(&doctors).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.Doctor, 0, len(doctors))
	for i := range doctors {
		out = append(out, doctors[i].toEntity())
	}
	return out, nil
}
