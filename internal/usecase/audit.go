package usecase

import (
	"context"
	"strconv"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
)

// Auditor writes audit entries. A failing audit write is logged and never fails the operation.
type Auditor struct {
	repo   repository.AuditRepository
	logger logger.Logger
}

// NewAuditor creates an auditor; a nil repo disables auditing
func NewAuditor(repo repository.AuditRepository, logger logger.Logger) *Auditor {
	return &Auditor{repo: repo, logger: logger}
}

// Record appends one audit entry
func (a *Auditor) Record(ctx context.Context, action, modelName string, objectID uint, repr string, changes map[string]interface{}, actor entity.Actor) {
	if a == nil || a.repo == nil {
		return
	}
	entry := &entity.AuditLog{
		Action:     action,
		ModelName:  modelName,
		ObjectID:   strconv.FormatUint(uint64(objectID), 10),
		ObjectRepr: repr,
		Changes:    changes,
		Actor:      actor,
	}
	if err := a.repo.Record(ctx, entry); err != nil {
		a.logger.Error("Failed to record audit log",
			"action", action,
			"model", modelName,
			"objectID", objectID,
			"error", err)
	}
}

func changeSet(before, after interface{}) map[string]interface{} {
	changes := map[string]interface{}{}
	if before != nil {
		changes["old"] = before
	}
	if after != nil {
		changes["new"] = after
	}
	return changes
}

// Audited model names
const (
	modelDepartment = "Department"
	modelDoctor     = "Doctor"
	modelDataSource = "DataSource"
	modelShiftList  = "ShiftList"
	modelShift      = "Shift"
)
