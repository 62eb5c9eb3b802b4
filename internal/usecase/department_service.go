package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
	"roster-service/pkg/utils"
)

// DepartmentService manages departments
type DepartmentService struct {
	store   repository.Store
	auditor *Auditor
	logger  logger.Logger
}

// NewDepartmentService creates a new department service
func NewDepartmentService(store repository.Store, auditor *Auditor, logger logger.Logger) *DepartmentService {
	return &DepartmentService{store: store, auditor: auditor, logger: logger}
}

// Create adds a department, deriving the code from the name when none is given
func (s *DepartmentService) Create(ctx context.Context, name, code string, actor entity.Actor) (*entity.Department, error) {
	department := &entity.Department{Active: true}
	if err := s.apply(department, name, code); err != nil {
		return nil, err
	}

	if err := s.store.Departments().Create(ctx, department); err != nil {
		return nil, departmentErr(err, department.Code)
	}

	s.auditor.Record(ctx, entity.AuditCreate, modelDepartment, department.ID, department.Name, changeSet(nil, departmentChanges(department)), actor)
	return department, nil
}

// Update renames a department or changes its code and active flag
func (s *DepartmentService) Update(ctx context.Context, id uint, name, code string, active bool, actor entity.Actor) (*entity.Department, error) {
	department, err := s.store.Departments().GetByID(ctx, id)
	if err != nil {
		return nil, notFound("department", id, err)
	}
	before := departmentChanges(department)

	if err := s.apply(department, name, code); err != nil {
		return nil, err
	}
	department.Active = active
	if err := s.store.Departments().Update(ctx, department); err != nil {
		return nil, departmentErr(err, department.Code)
	}

	s.auditor.Record(ctx, entity.AuditUpdate, modelDepartment, department.ID, department.Name, changeSet(before, departmentChanges(department)), actor)
	return department, nil
}

// Delete removes a department; its doctors and schedules stay without a department
func (s *DepartmentService) Delete(ctx context.Context, id uint, actor entity.Actor) error {
	department, err := s.store.Departments().GetByID(ctx, id)
	if err != nil {
		return notFound("department", id, err)
	}
	if err := s.store.Departments().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditDelete, modelDepartment, department.ID, department.Name, changeSet(departmentChanges(department), nil), actor)
	return nil
}

// List returns every department
func (s *DepartmentService) List(ctx context.Context) ([]*entity.Department, error) {
	return s.store.Departments().List(ctx)
}

func (s *DepartmentService) apply(department *entity.Department, name, code string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValidationError("name", errs.CodeRequired, "department name is required")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = utils.DepartmentCode(name)
	}
	if code == "" {
		return errs.NewValidationError("code", errs.CodeInvalid, "cannot derive a code from %q", name)
	}
	department.Name = name
	department.Code = code
	return nil
}

func departmentErr(err error, code string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.NewValidationError("code", errs.CodeDuplicate, "department code %q is already used", code)
	}
	return fmt.Errorf("failed to save department: %w", err)
}

func departmentChanges(d *entity.Department) map[string]interface{} {
	return map[string]interface{}{"name": d.Name, "code": d.Code, "active": d.Active}
}
