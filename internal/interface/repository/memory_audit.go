package repository

import (
	"context"
	"sync"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"

	"github.com/google/uuid"
)

// MemoryAuditRepository keeps the audit trail in process memory
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []entity.AuditLog
}

// NewMemoryAuditRepository creates an empty in-memory audit trail
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

var _ repository.AuditRepository = (*MemoryAuditRepository)(nil)

func (r *MemoryAuditRepository) Record(ctx context.Context, entry *entity.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	r.entries = append(r.entries, *entry)
	r.mu.Unlock()
	return nil
}

// ListByObject returns the history of one object, newest first
func (r *MemoryAuditRepository) ListByObject(ctx context.Context, modelName, objectID string, limit int) ([]*entity.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ModelName != modelName || e.ObjectID != objectID {
			continue
		}
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All returns every entry in insertion order
func (r *MemoryAuditRepository) All() []entity.AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entity.AuditLog(nil), r.entries...)
}
