package repository

import (
	"context"
	"time"

	"roster-service/internal/domain/entity"
)

// DataSourceRepository defines the interface for data source operations
type DataSourceRepository interface {
	Create(ctx context.Context, source *entity.DataSource) error
	Update(ctx context.Context, source *entity.DataSource) error
	// Delete removes the source and its fetch logs; shift lists keep their data but lose the reference
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.DataSource, error)
	List(ctx context.Context) ([]*entity.DataSource, error)
	ListActive(ctx context.Context) ([]*entity.DataSource, error)
	MarkFetched(ctx context.Context, id uint, at time.Time) error
}
