package usecase

import (
	"context"
	"fmt"
	"strings"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
	"roster-service/pkg/tabular"
	"roster-service/pkg/utils"
)

// DataSourceInput is the configuration of a remote roster source
type DataSourceInput struct {
	Name               string
	URL                string
	Format             string
	DepartmentID       *uint
	Active             bool
	FetchIntervalHours int
	// ColumnMapping is the raw JSON mapping document
	ColumnMapping []byte
}

// DataSourceService validates and stores source configuration
type DataSourceService struct {
	store   repository.Store
	auditor *Auditor
	logger  logger.Logger
}

// NewDataSourceService creates a new data source service
func NewDataSourceService(store repository.Store, auditor *Auditor, logger logger.Logger) *DataSourceService {
	return &DataSourceService{store: store, auditor: auditor, logger: logger}
}

// Create validates and adds a data source
func (s *DataSourceService) Create(ctx context.Context, in DataSourceInput, actor entity.Actor) (*entity.DataSource, error) {
	source := &entity.DataSource{CreatedBy: actor.UserID}
	if err := s.apply(ctx, source, in); err != nil {
		return nil, err
	}
	if err := s.store.DataSources().Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditCreate, modelDataSource, source.ID, source.Name, changeSet(nil, dataSourceChanges(source)), actor)
	return source, nil
}

// Update validates and replaces a data source's configuration
func (s *DataSourceService) Update(ctx context.Context, id uint, in DataSourceInput, actor entity.Actor) (*entity.DataSource, error) {
	source, err := s.store.DataSources().GetByID(ctx, id)
	if err != nil {
		return nil, notFound("source", id, err)
	}
	before := dataSourceChanges(source)

	if err := s.apply(ctx, source, in); err != nil {
		return nil, err
	}
	if err := s.store.DataSources().Update(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to update data source: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditUpdate, modelDataSource, source.ID, source.Name, changeSet(before, dataSourceChanges(source)), actor)
	return source, nil
}

// Delete removes a data source and its fetch history; imported schedules are kept
func (s *DataSourceService) Delete(ctx context.Context, id uint, actor entity.Actor) error {
	source, err := s.store.DataSources().GetByID(ctx, id)
	if err != nil {
		return notFound("source", id, err)
	}
	if err := s.store.DataSources().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete data source: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditDelete, modelDataSource, source.ID, source.Name, changeSet(dataSourceChanges(source), nil), actor)
	return nil
}

// FetchHistory returns the newest fetch logs of a source
func (s *DataSourceService) FetchHistory(ctx context.Context, id uint, limit int) ([]*entity.FetchLog, error) {
	return s.store.FetchLogs().ListBySource(ctx, id, limit)
}

func (s *DataSourceService) apply(ctx context.Context, source *entity.DataSource, in DataSourceInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errs.NewValidationError("name", errs.CodeRequired, "name is required")
	}
	if err := utils.ValidateSourceURL(in.URL); err != nil {
		return err
	}
	format, err := tabular.ParseFormat(in.Format)
	if err != nil {
		return errs.NewValidationError("format", errs.CodeInvalid, "unsupported format %q", in.Format)
	}
	if in.FetchIntervalHours < 1 {
		return errs.NewValidationError("fetch_interval_hours", errs.CodeInvalid, "fetch interval must be at least one hour")
	}
	mapping, err := tabular.ParseMapping(in.ColumnMapping)
	if err != nil {
		return err
	}
	if in.DepartmentID != nil {
		if _, err := s.store.Departments().GetByID(ctx, *in.DepartmentID); err != nil {
			return notFound("department", *in.DepartmentID, err)
		}
	}

	source.Name = name
	source.URL = strings.TrimSpace(in.URL)
	source.Format = format
	source.DepartmentID = in.DepartmentID
	source.Active = in.Active
	source.FetchIntervalHours = in.FetchIntervalHours
	source.ColumnMapping = mapping
	return nil
}

func dataSourceChanges(s *entity.DataSource) map[string]interface{} {
	out := map[string]interface{}{
		"name":               s.Name,
		"url":                s.URL,
		"format":             string(s.Format),
		"active":             s.Active,
		"fetchIntervalHours": s.FetchIntervalHours,
		"columnMapping":      map[string][]string(s.ColumnMapping),
	}
	if s.DepartmentID != nil {
		out["departmentId"] = *s.DepartmentID
	}
	return out
}
