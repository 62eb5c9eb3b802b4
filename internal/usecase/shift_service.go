package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/logger"
)

// ShiftInput is a manually entered shift
type ShiftInput struct {
	ShiftListID uint
	DoctorID    uint
	Date        time.Time
	Type        entity.ShiftType
	StartTime   *entity.ClockTime
	EndTime     *entity.ClockTime
	Notes       string
}

// ShiftListInput describes a manually created schedule
type ShiftListInput struct {
	Title        string
	DepartmentID *uint
	StartDate    time.Time
	EndDate      time.Time
	Published    bool
}

// BulkShiftRequest creates the same shift for several doctors over a date range
type BulkShiftRequest struct {
	ShiftListID uint
	DoctorIDs   []uint
	From        time.Time
	To          time.Time
	// Weekdays limits the range to these days; empty means every day
	Weekdays  []time.Weekday
	Type      entity.ShiftType
	StartTime *entity.ClockTime
	EndTime   *entity.ClockTime
	Notes     string
}

// BulkResult reports what a bulk creation did
type BulkResult struct {
	Created []*entity.Shift
	Skipped []string
}

// maxBulkDays bounds the date range of a bulk creation
const maxBulkDays = 366

// ShiftService handles manual schedule maintenance. Every mutation keeps the owning
// schedule's bounds in line with its shifts and is audited.
type ShiftService struct {
	store   repository.Store
	auditor *Auditor
	logger  logger.Logger
}

// NewShiftService creates a new shift service
func NewShiftService(store repository.Store, auditor *Auditor, logger logger.Logger) *ShiftService {
	return &ShiftService{store: store, auditor: auditor, logger: logger}
}

// CreateShift adds a shift after checking it does not overlap the doctor's other shifts that day
func (s *ShiftService) CreateShift(ctx context.Context, in ShiftInput, actor entity.Actor) (*entity.Shift, error) {
	shift, err := s.shiftFromInput(in)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := s.checkReferences(ctx, tx, shift); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx.Shifts(), shift, false); err != nil {
			return err
		}
		if err := tx.Shifts().Create(ctx, shift); err != nil {
			return duplicateShift(err, shift)
		}
		return tx.ShiftLists().RecomputeBounds(ctx, shift.ShiftListID)
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, entity.AuditCreate, modelShift, shift.ID, shiftRepr(shift), changeSet(nil, shiftChanges(shift)), actor)
	return shift, nil
}

// UpdateShift replaces the editable fields of a shift; moving it to another schedule updates both bounds
func (s *ShiftService) UpdateShift(ctx context.Context, id uint, in ShiftInput, actor entity.Actor) (*entity.Shift, error) {
	updated, err := s.shiftFromInput(in)
	if err != nil {
		return nil, err
	}

	var before map[string]interface{}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Shifts().GetByID(ctx, id)
		if err != nil {
			return notFound("shift", id, err)
		}
		before = shiftChanges(existing)
		previousList := existing.ShiftListID

		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		if err := s.checkReferences(ctx, tx, updated); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx.Shifts(), updated, false); err != nil {
			return err
		}
		if err := tx.Shifts().Update(ctx, updated); err != nil {
			return duplicateShift(err, updated)
		}
		if err := tx.ShiftLists().RecomputeBounds(ctx, updated.ShiftListID); err != nil {
			return err
		}
		if previousList != updated.ShiftListID {
			return tx.ShiftLists().RecomputeBounds(ctx, previousList)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, entity.AuditUpdate, modelShift, updated.ID, shiftRepr(updated), changeSet(before, shiftChanges(updated)), actor)
	return updated, nil
}

// DeleteShift removes a shift
func (s *ShiftService) DeleteShift(ctx context.Context, id uint, actor entity.Actor) error {
	var deleted *entity.Shift
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		shift, err := tx.Shifts().GetByID(ctx, id)
		if err != nil {
			return notFound("shift", id, err)
		}
		if err := tx.Shifts().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete shift: %w", err)
		}
		deleted = shift
		return tx.ShiftLists().RecomputeBounds(ctx, shift.ShiftListID)
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, entity.AuditDelete, modelShift, deleted.ID, shiftRepr(deleted), changeSet(shiftChanges(deleted), nil), actor)
	return nil
}

// BulkCreate creates one shift per doctor and matching day. Days that would conflict or
// duplicate an existing shift are skipped and reported.
func (s *ShiftService) BulkCreate(ctx context.Context, req BulkShiftRequest, actor entity.Actor) (*BulkResult, error) {
	if len(req.DoctorIDs) == 0 {
		return nil, errs.NewValidationError("doctor_ids", errs.CodeRequired, "at least one doctor is required")
	}
	from, to := truncateDay(req.From), truncateDay(req.To)
	if to.Before(from) {
		return nil, errs.NewValidationError("to", errs.CodeInvalid, "end date is before start date")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxBulkDays {
		return nil, errs.NewValidationError("to", errs.CodeInvalid, "date range of %d days exceeds %d", days, maxBulkDays)
	}

	weekdays := make(map[time.Weekday]bool, len(req.Weekdays))
	for _, d := range req.Weekdays {
		weekdays[d] = true
	}

	result := &BulkResult{}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.ShiftLists().GetByID(ctx, req.ShiftListID); err != nil {
			return notFound("shift_list", req.ShiftListID, err)
		}
		for _, doctorID := range req.DoctorIDs {
			if _, err := tx.Doctors().GetByID(ctx, doctorID); err != nil {
				return notFound("doctor", doctorID, err)
			}
			for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
				if len(weekdays) > 0 && !weekdays[day.Weekday()] {
					continue
				}
				shift, err := s.shiftFromInput(ShiftInput{
					ShiftListID: req.ShiftListID,
					DoctorID:    doctorID,
					Date:        day,
					Type:        req.Type,
					StartTime:   req.StartTime,
					EndTime:     req.EndTime,
					Notes:       req.Notes,
				})
				if err != nil {
					return err
				}
				if skip := s.tryCreate(ctx, tx, shift); skip != "" {
					result.Skipped = append(result.Skipped, skip)
					continue
				}
				result.Created = append(result.Created, shift)
			}
		}
		return tx.ShiftLists().RecomputeBounds(ctx, req.ShiftListID)
	})
	if err != nil {
		return nil, err
	}

	for _, shift := range result.Created {
		s.auditor.Record(ctx, entity.AuditCreate, modelShift, shift.ID, shiftRepr(shift), changeSet(nil, shiftChanges(shift)), actor)
	}
	s.logger.Info("Bulk shifts created", "shiftListID", req.ShiftListID, "created", len(result.Created), "skipped", len(result.Skipped))
	return result, nil
}

// tryCreate inserts shift inside a savepoint and returns why it was skipped, if it was
func (s *ShiftService) tryCreate(ctx context.Context, tx repository.Store, shift *entity.Shift) string {
	err := tx.Transaction(ctx, func(tx repository.Store) error {
		if err := checkOverlap(ctx, tx.Shifts(), shift, false); err != nil {
			return err
		}
		return tx.Shifts().Create(ctx, shift)
	})
	if err == nil {
		return ""
	}
	var ce *errs.ConflictError
	switch {
	case errors.As(err, &ce):
		return fmt.Sprintf("doctor %d on %s: %s", shift.DoctorID, shift.Date.Format("02.01.2006"), ce.Message)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Sprintf("doctor %d on %s: %s shift already exists", shift.DoctorID, shift.Date.Format("02.01.2006"), shift.Type.Label())
	}
	return fmt.Sprintf("doctor %d on %s: %v", shift.DoctorID, shift.Date.Format("02.01.2006"), err)
}

// CreateShiftList adds an empty manual schedule
func (s *ShiftService) CreateShiftList(ctx context.Context, in ShiftListInput, actor entity.Actor) (*entity.ShiftList, error) {
	if err := validateShiftListInput(in); err != nil {
		return nil, err
	}
	list := &entity.ShiftList{
		Title:        strings.TrimSpace(in.Title),
		DepartmentID: in.DepartmentID,
		StartDate:    truncateDay(in.StartDate),
		EndDate:      truncateDay(in.EndDate),
		SourceType:   entity.SourceTypeManual,
		IsPublished:  in.Published,
		CreatedBy:    actor.UserID,
	}
	if err := s.store.ShiftLists().Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create shift list: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditCreate, modelShiftList, list.ID, list.String(), changeSet(nil, shiftListChanges(list)), actor)
	return list, nil
}

// UpdateShiftList changes title, department and publication. Bounds follow the shifts once there are any.
func (s *ShiftService) UpdateShiftList(ctx context.Context, id uint, in ShiftListInput, actor entity.Actor) (*entity.ShiftList, error) {
	if err := validateShiftListInput(in); err != nil {
		return nil, err
	}

	var list *entity.ShiftList
	var before map[string]interface{}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		list, err = tx.ShiftLists().GetByID(ctx, id)
		if err != nil {
			return notFound("shift_list", id, err)
		}
		before = shiftListChanges(list)

		list.Title = strings.TrimSpace(in.Title)
		list.DepartmentID = in.DepartmentID
		list.StartDate = truncateDay(in.StartDate)
		list.EndDate = truncateDay(in.EndDate)
		list.IsPublished = in.Published
		if err := tx.ShiftLists().Update(ctx, list); err != nil {
			return fmt.Errorf("failed to update shift list: %w", err)
		}
		if err := tx.ShiftLists().RecomputeBounds(ctx, id); err != nil {
			return err
		}
		list, err = tx.ShiftLists().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, entity.AuditUpdate, modelShiftList, list.ID, list.String(), changeSet(before, shiftListChanges(list)), actor)
	return list, nil
}

// DeleteShiftList removes a schedule together with its shifts
func (s *ShiftService) DeleteShiftList(ctx context.Context, id uint, actor entity.Actor) error {
	list, err := s.store.ShiftLists().GetByID(ctx, id)
	if err != nil {
		return notFound("shift_list", id, err)
	}
	if err := s.store.ShiftLists().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shift list: %w", err)
	}

	s.auditor.Record(ctx, entity.AuditDelete, modelShiftList, list.ID, list.String(), changeSet(shiftListChanges(list), nil), actor)
	return nil
}

// Publish makes a schedule visible
func (s *ShiftService) Publish(ctx context.Context, id uint, actor entity.Actor) (*entity.ShiftList, error) {
	return s.setPublished(ctx, id, true, actor)
}

// Unpublish hides a schedule again
func (s *ShiftService) Unpublish(ctx context.Context, id uint, actor entity.Actor) (*entity.ShiftList, error) {
	return s.setPublished(ctx, id, false, actor)
}

func (s *ShiftService) setPublished(ctx context.Context, id uint, published bool, actor entity.Actor) (*entity.ShiftList, error) {
	list, err := s.store.ShiftLists().GetByID(ctx, id)
	if err != nil {
		return nil, notFound("shift_list", id, err)
	}
	if list.IsPublished == published {
		return list, nil
	}
	list.IsPublished = published
	if err := s.store.ShiftLists().Update(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to update shift list: %w", err)
	}

	action := entity.AuditPublish
	if !published {
		action = entity.AuditUnpublish
	}
	s.auditor.Record(ctx, action, modelShiftList, list.ID, list.String(), nil, actor)
	return list, nil
}

func (s *ShiftService) shiftFromInput(in ShiftInput) (*entity.Shift, error) {
	if in.Date.IsZero() {
		return nil, errs.NewValidationError("date", errs.CodeRequired, "date is required")
	}
	shiftType := in.Type
	if shiftType == "" {
		shiftType = entity.ShiftNormal
	}
	if !shiftType.Valid() {
		return nil, errs.NewValidationError("shift_type", errs.CodeInvalid, "unknown shift type %q", in.Type)
	}
	for field, c := range map[string]*entity.ClockTime{"start_time": in.StartTime, "end_time": in.EndTime} {
		if c == nil {
			continue
		}
		if _, err := entity.NewClockTime(c.Hour, c.Minute); err != nil {
			return nil, errs.NewValidationError(field, errs.CodeInvalid, "%v", err)
		}
	}
	if in.StartTime != nil && in.EndTime != nil && in.EndTime.Minutes() <= in.StartTime.Minutes() {
		return nil, errs.NewValidationError("end_time", errs.CodeInvalid, "end time %s is not after start time %s", in.EndTime, in.StartTime)
	}

	return &entity.Shift{
		ShiftListID: in.ShiftListID,
		DoctorID:    in.DoctorID,
		Date:        truncateDay(in.Date),
		Type:        shiftType,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

func (s *ShiftService) checkReferences(ctx context.Context, tx repository.Store, shift *entity.Shift) error {
	if _, err := tx.ShiftLists().GetByID(ctx, shift.ShiftListID); err != nil {
		return notFound("shift_list", shift.ShiftListID, err)
	}
	if _, err := tx.Doctors().GetByID(ctx, shift.DoctorID); err != nil {
		return notFound("doctor", shift.DoctorID, err)
	}
	return nil
}

func validateShiftListInput(in ShiftListInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errs.NewValidationError("title", errs.CodeRequired, "title is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errs.NewValidationError("start_date", errs.CodeRequired, "start and end date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return errs.NewValidationError("end_date", errs.CodeInvalid, "end date is before start date")
	}
	return nil
}

// notFound turns a missing reference into a validation error and wraps anything else
func notFound(field string, id uint, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewValidationError(field, errs.CodeNotFound, "%s %d not found", field, id)
	}
	return fmt.Errorf("failed to load %s %d: %w", field, id, err)
}

func duplicateShift(err error, shift *entity.Shift) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return errs.NewValidationError("shift_type", errs.CodeDuplicate,
			"doctor already has a %s shift on %s", shift.Type.Label(), shift.Date.Format("02.01.2006"))
	}
	return fmt.Errorf("failed to save shift: %w", err)
}

func shiftRepr(s *entity.Shift) string {
	return fmt.Sprintf("%s %s doctor #%d", s.Date.Format("2006-01-02"), s.Type, s.DoctorID)
}

func shiftChanges(s *entity.Shift) map[string]interface{} {
	out := map[string]interface{}{
		"shiftListId": s.ShiftListID,
		"doctorId":    s.DoctorID,
		"date":        s.Date.Format("2006-01-02"),
		"shiftType":   string(s.Type),
		"notes":       s.Notes,
	}
	if s.StartTime != nil {
		out["startTime"] = s.StartTime.String()
	}
	if s.EndTime != nil {
		out["endTime"] = s.EndTime.String()
	}
	return out
}

func shiftListChanges(l *entity.ShiftList) map[string]interface{} {
	out := map[string]interface{}{
		"title":       l.Title,
		"startDate":   l.StartDate.Format("2006-01-02"),
		"endDate":     l.EndDate.Format("2006-01-02"),
		"isPublished": l.IsPublished,
	}
	if l.DepartmentID != nil {
		out["departmentId"] = *l.DepartmentID
	}
	return out
}
