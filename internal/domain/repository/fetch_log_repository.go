package repository

import (
	"context"

	"roster-service/internal/domain/entity"
)

// FetchLogRepository defines the interface for fetch log operations
type FetchLogRepository interface {
	Create(ctx context.Context, log *entity.FetchLog) error
	Update(ctx context.Context, log *entity.FetchLog) error
	GetByID(ctx context.Context, id uint) (*entity.FetchLog, error)
	// ListBySource returns the newest logs first; limit <= 0 means no limit
	ListBySource(ctx context.Context, sourceID uint, limit int) ([]*entity.FetchLog, error)
}
