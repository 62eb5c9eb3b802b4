package usecase

import (
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
)

// Services is the usecase surface offered to callers of the roster service
type Services struct {
	Departments  *DepartmentService
	Doctors      *DoctorService
	DataSources  *DataSourceService
	Shifts       *ShiftService
	Exports      *ExportService
	Orchestrator *FetchOrchestrator
}

// NewServices builds the maintenance services around an already configured orchestrator
func NewServices(store repository.Store, auditor *Auditor, orchestrator *FetchOrchestrator, logger logger.Logger) *Services {
	return &Services{
		Departments:  NewDepartmentService(store, auditor, logger),
		Doctors:      NewDoctorService(store, auditor, logger),
		DataSources:  NewDataSourceService(store, auditor, logger),
		Shifts:       NewShiftService(store, auditor, logger),
		Exports:      NewExportService(store, auditor, logger),
		Orchestrator: orchestrator,
	}
}
