package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/tabular"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormDataSourceRepository implements the DataSourceRepository interface
type GormDataSourceRepository struct {
	db *gorm.DB
}

// NewGormDataSourceRepository creates a new GORM data source repository
func NewGormDataSourceRepository(db *gorm.DB) repository.DataSourceRepository {
	return &GormDataSourceRepository{
		db: db,
	}
}

// DataSource GORM model for database mapping
type DataSource struct {
	ID                 uint                                `gorm:"primaryKey"`
	Name               string                              `gorm:"column:name;size:100;not null"`
	URL                string                              `gorm:"column:url;size:500;not null"`
	Format             string                              `gorm:"column:format;size:32;not null"`
	Active             bool                                `gorm:"column:active;index"`
	FetchIntervalHours int                                 `gorm:"column:fetch_interval_hours"`
	LastFetched        *time.Time                          `gorm:"column:last_fetched"`
	ColumnMapping      datatypes.JSONType[tabular.Mapping] `gorm:"column:column_mapping;type:jsonb"`
	DepartmentID       *uint                               `gorm:"column:department_id;index"`
	CreatedBy          string                              `gorm:"column:created_by;size:100"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName overrides the default table name
func (DataSource) TableName() string {
	return "data_sources"
}

func (m *DataSource) toEntity() *entity.DataSource {
	return &entity.DataSource{
		ID:                 m.ID,
		Name:               m.Name,
		URL:                m.URL,
		Format:             tabular.Format(m.Format),
		Active:             m.Active,
		FetchIntervalHours: m.FetchIntervalHours,
		LastFetched:        m.LastFetched,
		ColumnMapping:      m.ColumnMapping.Data(),
		DepartmentID:       m.DepartmentID,
		CreatedBy:          m.CreatedBy,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func dataSourceModel(s *entity.DataSource) *DataSource {
	return &DataSource{
		ID:                 s.ID,
		Name:               s.Name,
		URL:                s.URL,
		Format:             string(s.Format),
		Active:             s.Active,
		FetchIntervalHours: s.FetchIntervalHours,
		LastFetched:        s.LastFetched,
		ColumnMapping:      datatypes.NewJSONType(s.ColumnMapping),
		DepartmentID:       s.DepartmentID,
		CreatedBy:          s.CreatedBy,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Create inserts a data source
func (r *GormDataSourceRepository) Create(ctx context.Context, source *entity.DataSource) error {
	model := dataSourceModel(source)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	*source = *model.toEntity()
	return nil
}

// Update saves all data source fields
func (r *GormDataSourceRepository) Update(ctx context.Context, source *entity.DataSource) error {
	model := dataSourceModel(source)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	source.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a source and its fetch logs and detaches shift lists that came from it
func (r *GormDataSourceRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&ShiftList{}).Where("source_id = ?", id).Update("source_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("source_id = ?", id).Delete(&FetchLog{}).Error; err != nil {
		return err
	}
	result := db.Delete(&DataSource{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID finds a data source by id
func (r *GormDataSourceRepository) GetByID(ctx context.Context, id uint) (*entity.DataSource, error) {
	var source DataSource
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		return nil, translateError(err)
	}
	return source.toEntity(), nil
}

// List returns all sources, most recently updated first
func (r *GormDataSourceRepository) List(ctx context.Context) ([]*entity.DataSource, error) {
	return r.find(r.db.WithContext(ctx).Order("updated_at DESC"))
}

// ListActive returns the active sources
func (r *GormDataSourceRepository) ListActive(ctx context.Context) ([]*entity.DataSource, error) {
	return r.find(r.db.WithContext(ctx).Where("active = ?", true).Order("id"))
}

func (r *GormDataSourceRepository) find(query *gorm.DB) ([]*entity.DataSource, error) {
	var sources []DataSource
	if err := query.Find(&sources).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.DataSource, 0, len(sources))
	for i := range sources {
		out = append(out, sources[i].toEntity())
	}
	return out, nil
}

// MarkFetched advances the source's last successful fetch time
func (r *GormDataSourceRepository) MarkFetched(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&DataSource{}).Where("id = ?", id).Update("last_fetched", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
