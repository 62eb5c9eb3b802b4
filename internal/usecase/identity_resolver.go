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

// DoctorMatcher finds the registry entry a parsed name refers to.
// It returns repository.ErrNotFound when there is none.
type DoctorMatcher interface {
	Match(ctx context.Context, doctors repository.DoctorRepository, name utils.ParsedName, departmentID *uint) (*entity.Doctor, error)
}

// ExactNameMatcher matches on exact given and family name within the department
type ExactNameMatcher struct{}

func (ExactNameMatcher) Match(ctx context.Context, doctors repository.DoctorRepository, name utils.ParsedName, departmentID *uint) (*entity.Doctor, error) {
	return doctors.FindByName(ctx, name.GivenName, name.FamilyName, departmentID)
}

// Contact is the optional contact data found next to a name
type Contact struct {
	Phone string
	Email string
}

// ResolveOutcome tells what Resolve did
type ResolveOutcome struct {
	Created        bool
	ContactUpdated bool
	// PhoneRejected holds a phone value that could not be normalized
	PhoneRejected string
}

// IdentityResolver turns free-text names into doctor registry entries
type IdentityResolver struct {
	matcher DoctorMatcher
	logger  logger.Logger
}

// NewIdentityResolver creates a resolver; a nil matcher means exact name matching
func NewIdentityResolver(matcher DoctorMatcher, logger logger.Logger) *IdentityResolver {
	if matcher == nil {
		matcher = ExactNameMatcher{}
	}
	return &IdentityResolver{matcher: matcher, logger: logger}
}

// Resolve finds or creates the doctor named rawName in the department and refreshes the contact data.
// Unrecognized phone numbers are logged and do not fail the resolution.
func (r *IdentityResolver) Resolve(ctx context.Context, store repository.Store, rawName string, departmentID *uint, contact Contact) (*entity.Doctor, ResolveOutcome, error) {
	var outcome ResolveOutcome

	name := utils.ParseDoctorName(rawName)
	if name.FamilyName == "" {
		return nil, outcome, errs.NewValidationError("doctor_name", errs.CodeRequired, "no doctor name in %q", rawName)
	}

	doctor, err := r.matcher.Match(ctx, store.Doctors(), name, departmentID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		doctor, outcome.Created, err = r.create(ctx, store, name, departmentID)
		if err != nil {
			return nil, outcome, err
		}
	default:
		return nil, outcome, fmt.Errorf("failed to match doctor %q: %w", rawName, err)
	}

	phone := strings.TrimSpace(contact.Phone)
	if phone != "" {
		normalized, ok := utils.NormalizePhone(phone)
		if !ok {
			r.logger.Warn("Unrecognized phone format", "doctorID", doctor.ID, "phone", phone)
			outcome.PhoneRejected = phone
			if doctor.Phone != "" {
				normalized = doctor.Phone
			}
		}
		phone = normalized
	}

	if r.applyContact(doctor, phone, strings.TrimSpace(contact.Email)) {
		if err := store.Doctors().Update(ctx, doctor); err != nil {
			return nil, outcome, fmt.Errorf("failed to update doctor contact: %w", err)
		}
		outcome.ContactUpdated = true
	}

	return doctor, outcome, nil
}

// create inserts the doctor inside a savepoint; losing a creation race turns into a lookup
func (r *IdentityResolver) create(ctx context.Context, store repository.Store, name utils.ParsedName, departmentID *uint) (*entity.Doctor, bool, error) {
	doctor := &entity.Doctor{
		GivenName:    name.GivenName,
		FamilyName:   name.FamilyName,
		Title:        name.Title,
		DepartmentID: departmentID,
		Active:       true,
	}

	err := store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Doctors().Create(ctx, doctor)
	})
	if err == nil {
		r.logger.Info("Doctor created", "doctorID", doctor.ID, "name", doctor.FullName())
		return doctor, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, false, fmt.Errorf("failed to create doctor: %w", err)
	}

	existing, err := r.matcher.Match(ctx, store.Doctors(), name, departmentID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find concurrently created doctor: %w", err)
	}
	return existing, false, nil
}

// applyContact overwrites contact fields only with non-empty values that differ
func (r *IdentityResolver) applyContact(doctor *entity.Doctor, phone, email string) bool {
	changed := false
	if phone != "" && phone != doctor.Phone {
		doctor.Phone = phone
		changed = true
	}
	if email != "" && email != doctor.Email {
		doctor.Email = email
		changed = true
	}
	return changed
}
