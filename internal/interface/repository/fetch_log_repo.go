package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormFetchLogRepository implements the FetchLogRepository interface
type GormFetchLogRepository struct {
	db *gorm.DB
}

// NewGormFetchLogRepository creates a new GORM fetch log repository
func NewGormFetchLogRepository(db *gorm.DB) repository.FetchLogRepository {
	return &GormFetchLogRepository{
		db: db,
	}
}

// FetchLog GORM model for database mapping
type FetchLog struct {
	ID               uint       `gorm:"primaryKey"`
	SourceID         *uint      `gorm:"column:source_id;index"`
	UploadName       string     `gorm:"column:upload_name;size:255"`
	TaskID           string     `gorm:"column:task_id;size:36;index"`
	Attempt          int        `gorm:"column:attempt"`
	Status           string     `gorm:"column:status;size:16;not null"`
	StartedAt        time.Time  `gorm:"column:started_at;not null"`
	CompletedAt      *time.Time `gorm:"column:completed_at"`
	RecordsProcessed int        `gorm:"column:records_processed"`
	RecordsCreated   int        `gorm:"column:records_created"`
	RecordsUpdated   int        `gorm:"column:records_updated"`
	RecordsFailed    int        `gorm:"column:records_failed"`
	RecordsSkipped   int        `gorm:"column:records_skipped"`
	ErrorMessage     string     `gorm:"column:error_message;type:text"`
	RawData          string     `gorm:"column:raw_data;type:text"`
}

// TableName overrides the default table name
func (FetchLog) TableName() string {
	return "fetch_logs"
}

func (m *FetchLog) toEntity() *entity.FetchLog {
	return &entity.FetchLog{
		ID:               m.ID,
		SourceID:         m.SourceID,
		UploadName:       m.UploadName,
		TaskID:           m.TaskID,
		Attempt:          m.Attempt,
		Status:           m.Status,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
		RecordsProcessed: m.RecordsProcessed,
		RecordsCreated:   m.RecordsCreated,
		RecordsUpdated:   m.RecordsUpdated,
		RecordsFailed:    m.RecordsFailed,
		RecordsSkipped:   m.RecordsSkipped,
		ErrorMessage:     m.ErrorMessage,
		RawData:          m.RawData,
	}
}

func fetchLogModel(l *entity.FetchLog) *FetchLog {
	return &FetchLog{
		ID:               l.ID,
		SourceID:         l.SourceID,
		UploadName:       l.UploadName,
		TaskID:           l.TaskID,
		Attempt:          l.Attempt,
		Status:           l.Status,
		StartedAt:        l.StartedAt,
		CompletedAt:      l.CompletedAt,
		RecordsProcessed: l.RecordsProcessed,
		RecordsCreated:   l.RecordsCreated,
		RecordsUpdated:   l.RecordsUpdated,
		RecordsFailed:    l.RecordsFailed,
		RecordsSkipped:   l.RecordsSkipped,
		ErrorMessage:     l.ErrorMessage,
		RawData:          l.RawData,
	}
}

// Create inserts a fetch log
func (r *GormFetchLogRepository) Create(ctx context.Context, log *entity.FetchLog) error {
	model := fetchLogModel(log)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	log.ID = model.ID
	return nil
}

// Update saves all fetch log fields
func (r *GormFetchLogRepository) Update(ctx context.Context, log *entity.FetchLog) error {
	return translateError(r.db.WithContext(ctx).Save(fetchLogModel(log)).Error)
}

// GetByID finds a fetch log by id
func (r *GormFetchLogRepository) GetByID(ctx context.Context, id uint) (*entity.FetchLog, error) {
	var log FetchLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, translateError(err)
	}
	return log.toEntity(), nil
}

// ListBySource returns a source's logs, newest first
func (r *GormFetchLogRepository) ListBySource(ctx context.Context, sourceID uint, limit int) ([]*entity.FetchLog, error) {
	query := r.db.WithContext(ctx).Where("source_id = ?", sourceID).Order("started_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var logs []FetchLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.FetchLog, 0, len(logs))
	for i := range logs {
		out = append(out, logs[i].toEntity())
	}
	return out, nil
}
