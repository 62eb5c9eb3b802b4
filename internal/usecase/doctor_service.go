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

// DoctorInput is the editable part of a doctor
type DoctorInput struct {
	GivenName    string
	FamilyName   string
	Title        string
	DepartmentID *uint
	Phone        string
	Email        string
	Active       bool
	ExternalID   string
}

// DoctorService manages the doctor registry through interactive entry.
// Unlike bulk ingestion, an unrecognized phone number is rejected here.
type DoctorService struct {
	store   repository.Store
	auditor *Auditor
	logger  logger.Logger
}

// NewDoctorService creates a new doctor service
func NewDoctorService(store repository.Store, auditor *Auditor, logger logger.Logger) *DoctorService {
	return &DoctorService{store: store, auditor: auditor, logger: logger}
}

// Create adds a doctor
func (s *DoctorService) Create(ctx context.Context, in DoctorInput, actor entity.Actor) (*entity.Doctor, error) {
	doctor := &entity.Doctor{}
	if err := s.apply(ctx, doctor, in); err != nil {
		return nil, err
	}
	if err := s.store.Doctors().Create(ctx, doctor); err != nil {
		return nil, doctorErr(err, doctor)
	}

	s.auditor.Record(ctx, entity.AuditCreate, modelDoctor, doctor.ID, doctor.DisplayName(), changeSet(nil, doctorChanges(doctor)), actor)
	return doctor, nil
}

// Update replaces the editable fields of a doctor
func (s *DoctorService) Update(ctx context.Context, id uint, in DoctorInput, actor entity.Actor) (*entity.Doctor, error) {
	doctor, err := s.store.Doctors().GetByID(ctx, id)
	if err != nil {
		return nil, notFound("doctor", id, err)
	}
	before := doctorChanges(doctor)

	if err := s.apply(ctx, doctor, in); err != nil {
		return nil, err
	}
	if err := s.store.Doctors().Update(ctx, doctor); err != nil {
		return nil, doctorErr(err, doctor)
	}

	s.auditor.Record(ctx, entity.AuditUpdate, modelDoctor, doctor.ID, doctor.DisplayName(), changeSet(before, doctorChanges(doctor)), actor)
	return doctor, nil
}

// Delete removes a doctor and the doctor's shifts
func (s *DoctorService) Delete(ctx context.Context, id uint, actor entity.Actor) error {
	var doctor *entity.Doctor
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		doctor, err = tx.Doctors().GetByID(ctx, id)
		if err != nil {
			return notFound("doctor", id, err)
		}
		shifts, err := tx.Shifts().ListByDoctor(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list shifts: %w", err)
		}
		if err := tx.Doctors().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}

		touched := map[uint]bool{}
		for _, shift := range shifts {
			if touched[shift.ShiftListID] {
				continue
			}
			touched[shift.ShiftListID] = true
			if err := tx.ShiftLists().RecomputeBounds(ctx, shift.ShiftListID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, entity.AuditDelete, modelDoctor, doctor.ID, doctor.DisplayName(), changeSet(doctorChanges(doctor), nil), actor)
	return nil
}

// List returns doctors matching filter
func (s *DoctorService) List(ctx context.Context, filter repository.DoctorFilter) ([]*entity.Doctor, error) {
	return s.store.Doctors().List(ctx, filter)
}

func (s *DoctorService) apply(ctx context.Context, doctor *entity.Doctor, in DoctorInput) error {
	given := strings.Join(strings.Fields(in.GivenName), " ")
	family := strings.Join(strings.Fields(in.FamilyName), " ")
	if family == "" {
		return errs.NewValidationError("family_name", errs.CodeRequired, "family name is required")
	}

	phone, err := utils.ValidatePhone(in.Phone)
	if err != nil {
		return err
	}
	email := strings.TrimSpace(in.Email)
	if email != "" && !strings.Contains(email, "@") {
		return errs.NewValidationError("email", errs.CodeInvalid, "invalid e-mail address %q", email)
	}

	if in.DepartmentID != nil {
		if _, err := s.store.Departments().GetByID(ctx, *in.DepartmentID); err != nil {
			return notFound("department", *in.DepartmentID, err)
		}
	}

	doctor.GivenName = given
	doctor.FamilyName = family
	doctor.Title = strings.TrimSpace(in.Title)
	doctor.DepartmentID = in.DepartmentID
	doctor.Phone = phone
	doctor.Email = email
	doctor.Active = in.Active
	doctor.ExternalID = strings.TrimSpace(in.ExternalID)
	return nil
}

func doctorErr(err error, d *entity.Doctor) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.NewValidationError("name", errs.CodeDuplicate, "doctor %q already exists in this department", d.FullName())
	}
	return fmt.Errorf("failed to save doctor: %w", err)
}

func doctorChanges(d *entity.Doctor) map[string]interface{} {
	out := map[string]interface{}{
		"givenName":  d.GivenName,
		"familyName": d.FamilyName,
		"title":      d.Title,
		"phone":      d.Phone,
		"email":      d.Email,
		"active":     d.Active,
	}
	if d.DepartmentID != nil {
		out["departmentId"] = *d.DepartmentID
	}
	return out
}
