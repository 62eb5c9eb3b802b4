package repository

import (
	"context"

	"roster-service/internal/domain/entity"
)

// AuditRepository stores the append-only audit trail
type AuditRepository interface {
	Record(ctx context.Context, entry *entity.AuditLog) error
	ListByObject(ctx context.Context, modelName, objectID string, limit int) ([]*entity.AuditLog, error)
}
