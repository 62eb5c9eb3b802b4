package repository

import (
	"context"

	"roster-service/internal/domain/entity"
)

// ShiftListFilter narrows shift list listings
type ShiftListFilter struct {
	DepartmentID  *uint
	PublishedOnly bool
}

// ShiftListRepository defines the interface for shift list operations
type ShiftListRepository interface {
	Create(ctx context.Context, list *entity.ShiftList) error
	Update(ctx context.Context, list *entity.ShiftList) error
	// Delete removes the shift list together with its shifts
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*entity.ShiftList, error)
	List(ctx context.Context, filter ShiftListFilter) ([]*entity.ShiftList, error)
	// RecomputeBounds sets start and end date to the min and max date of the list's shifts.
	// A list without shifts keeps its bounds.
	RecomputeBounds(ctx context.Context, id uint) error
}
