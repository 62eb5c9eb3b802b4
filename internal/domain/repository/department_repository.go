package repository

import (
	"context"

	"roster-service/internal/domain/entity"
)

// DepartmentRepository defines the interface for department operations
type DepartmentRepository interface {
	Create(ctx context.Context, department *entity.Department) error
	Update(ctx context.Context, department *entity.Department) error
	// Delete removes the department and clears references from doctors and shift lists
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.Department, error)
	GetByCode(ctx context.Context, code string) (*entity.Department, error)
	List(ctx context.Context) ([]*entity.Department, error)
}
