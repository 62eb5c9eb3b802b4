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
	"roster-service/pkg/tabular"
)

// ConflictPolicy decides what bulk ingestion does with a shift whose hours collide with
// another shift of the same doctor on the same date
type ConflictPolicy string

const (
	// ConflictIgnore imports overlapping shifts
	ConflictIgnore ConflictPolicy = "ignore"
	// ConflictReject fails the row like a manual entry would
	ConflictReject ConflictPolicy = "reject"
)

// ParseConflictPolicy accepts "ignore" and "reject"; empty means ignore
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ConflictIgnore:
		return ConflictIgnore, nil
	case ConflictReject:
		return ConflictReject, nil
	}
	return "", errs.NewValidationError("conflict_policy", errs.CodeInvalid, "unknown conflict policy %q", s)
}

// RowError describes why a source row was not imported as is
type RowError struct {
	Row     int
	Field   string
	Message string
}

func (e RowError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d (%s): %s", e.Row, e.Field, e.Message)
}

// BuildResult counts what happened to the rows of one table
type BuildResult struct {
	Processed      int
	Created        int
	Updated        int
	Failed         int
	Skipped        int
	DoctorsCreated int
	Errors         []RowError
	Warnings       []RowError
}

// Imported is the number of rows that produced or refreshed a shift
func (r *BuildResult) Imported() int {
	return r.Created + r.Updated
}

// Status maps the counters to a fetch log status
func (r *BuildResult) Status() string {
	switch {
	case r.Imported() == 0:
		return entity.FetchStatusFailed
	case r.Failed > 0 || r.Skipped > 0:
		return entity.FetchStatusPartial
	}
	return entity.FetchStatusSuccess
}

// Summary joins the first row errors into one message
func (r *BuildResult) Summary(max int) string {
	if len(r.Errors) == 0 {
		return ""
	}
	lines := make([]string, 0, max+1)
	for i, e := range r.Errors {
		if i == max {
			lines = append(lines, fmt.Sprintf("... and %d more", len(r.Errors)-max))
			break
		}
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota + 1
	rowUpdated
)

type datedRow struct {
	row  tabular.Row
	date time.Time
}

// ShiftBuilder turns canonical roster rows into shifts of one schedule
type ShiftBuilder struct {
	resolver *IdentityResolver
	policy   ConflictPolicy
	logger   logger.Logger
}

// NewShiftBuilder creates a shift builder
func NewShiftBuilder(resolver *IdentityResolver, policy ConflictPolicy, logger logger.Logger) *ShiftBuilder {
	if policy == "" {
		policy = ConflictIgnore
	}
	return &ShiftBuilder{resolver: resolver, policy: policy, logger: logger}
}

// Build upserts one shift per row of table into list. list must already be stored.
// Rows with unreadable dates are skipped and rows that cannot be imported are counted as failed;
// only a missing required column or a cancelled context fails the whole build.
func (b *ShiftBuilder) Build(ctx context.Context, store repository.Store, table *tabular.Table, list *entity.ShiftList) (*BuildResult, error) {
	if missing := tabular.MissingRequired(table); len(missing) > 0 {
		return nil, &errs.MissingColumnError{Columns: missing}
	}

	result := &BuildResult{}
	rows := make([]datedRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row.IsBlank() {
			continue
		}
		result.Processed++
		date, err := row.Get(tabular.FieldDate).AsDate()
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row.Number, Field: tabular.FieldDate, Message: err.Error()})
			continue
		}
		rows = append(rows, datedRow{row: row, date: date})
	}

	if len(rows) > 0 {
		list.StartDate, list.EndDate = rows[0].date, rows[0].date
		for _, r := range rows[1:] {
			if r.date.Before(list.StartDate) {
				list.StartDate = r.date
			}
			if r.date.After(list.EndDate) {
				list.EndDate = r.date
			}
		}
		if err := store.ShiftLists().Update(ctx, list); err != nil {
			return nil, fmt.Errorf("failed to set shift list bounds: %w", err)
		}
	}

	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var outcome rowOutcome
		var resolved ResolveOutcome
		err := store.Transaction(ctx, func(tx repository.Store) error {
			var err error
			outcome, resolved, err = b.buildRow(ctx, tx, r, list)
			return err
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, rowError(r.row.Number, err))
			continue
		}

		switch outcome {
		case rowCreated:
			result.Created++
		case rowUpdated:
			result.Updated++
		}
		if resolved.Created {
			result.DoctorsCreated++
		}
		if resolved.PhoneRejected != "" {
			result.Warnings = append(result.Warnings, RowError{
				Row:     r.row.Number,
				Field:   tabular.FieldPhone,
				Message: fmt.Sprintf("unrecognized phone format %q", resolved.PhoneRejected),
			})
		}
	}

	if err := store.ShiftLists().RecomputeBounds(ctx, list.ID); err != nil {
		return nil, fmt.Errorf("failed to recompute shift list bounds: %w", err)
	}
	if refreshed, err := store.ShiftLists().GetByID(ctx, list.ID); err == nil {
		*list = *refreshed
	}

	b.logger.Info("Shift list built",
		"shiftListID", list.ID,
		"processed", result.Processed,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
		"skipped", result.Skipped)

	return result, nil
}

func (b *ShiftBuilder) buildRow(ctx context.Context, tx repository.Store, r datedRow, list *entity.ShiftList) (rowOutcome, ResolveOutcome, error) {
	row := r.row
	rawName := row.Get(tabular.FieldDoctorName).String()
	if strings.TrimSpace(rawName) == "" {
		return 0, ResolveOutcome{}, errs.NewValidationError(tabular.FieldDoctorName, errs.CodeRequired, "doctor name is empty")
	}

	start, err := clockCell(row.Get(tabular.FieldStartTime), tabular.FieldStartTime)
	if err != nil {
		return 0, ResolveOutcome{}, err
	}
	end, err := clockCell(row.Get(tabular.FieldEndTime), tabular.FieldEndTime)
	if err != nil {
		return 0, ResolveOutcome{}, err
	}

	doctor, resolved, err := b.resolver.Resolve(ctx, tx, rawName, list.DepartmentID, Contact{
		Phone: row.Get(tabular.FieldPhone).String(),
		Email: row.Get(tabular.FieldEmail).String(),
	})
	if err != nil {
		return 0, resolved, err
	}

	shift := &entity.Shift{
		ShiftListID: list.ID,
		DoctorID:    doctor.ID,
		Date:        r.date,
		Type:        ClassifyShiftType(row.Get(tabular.FieldShiftType).String()),
		StartTime:   start,
		EndTime:     end,
		Notes:       row.Get(tabular.FieldNotes).String(),
	}

	if b.policy == ConflictReject {
		if err := checkOverlap(ctx, tx.Shifts(), shift, true); err != nil {
			return 0, resolved, err
		}
	}

	existing, err := tx.Shifts().FindByKey(ctx, shift.DoctorID, shift.Date, shift.Type)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := tx.Shifts().Create(ctx, shift); err != nil {
			return 0, resolved, fmt.Errorf("failed to create shift: %w", err)
		}
		if err := tx.ShiftLists().RecomputeBounds(ctx, list.ID); err != nil {
			return 0, resolved, err
		}
		return rowCreated, resolved, nil
	case err != nil:
		return 0, resolved, fmt.Errorf("failed to look up shift: %w", err)
	}

	previousList := existing.ShiftListID
	existing.ShiftListID = list.ID
	existing.StartTime = shift.StartTime
	existing.EndTime = shift.EndTime
	existing.Notes = shift.Notes
	if err := tx.Shifts().Update(ctx, existing); err != nil {
		return 0, resolved, fmt.Errorf("failed to update shift: %w", err)
	}
	if err := tx.ShiftLists().RecomputeBounds(ctx, list.ID); err != nil {
		return 0, resolved, err
	}
	if previousList != list.ID {
		if err := tx.ShiftLists().RecomputeBounds(ctx, previousList); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return 0, resolved, err
		}
	}
	return rowUpdated, resolved, nil
}

// checkOverlap returns a ConflictError when shift collides with another shift of the same doctor
// on the same date, whatever its type. With replacing set, the shift sharing its key is the one an
// import row overwrites and is ignored.
func checkOverlap(ctx context.Context, shifts repository.ShiftRepository, shift *entity.Shift, replacing bool) error {
	others, err := shifts.ListByDoctorAndDate(ctx, shift.DoctorID, shift.Date)
	if err != nil {
		return fmt.Errorf("failed to list shifts: %w", err)
	}
	for _, other := range others {
		if other.ID == shift.ID || (replacing && other.Type == shift.Type) {
			continue
		}
		if shift.Overlaps(other) {
			return &errs.ConflictError{
				ExistingShiftID: other.ID,
				Message:         fmt.Sprintf("overlaps %s shift %s", other.Type.Label(), formatWindow(other)),
			}
		}
	}
	return nil
}

func formatWindow(s *entity.Shift) string {
	start, end := "00:00", "24:00"
	if s.StartTime != nil {
		start = s.StartTime.String()
	}
	if s.EndTime != nil {
		end = s.EndTime.String()
	}
	return start + "-" + end
}

func clockCell(c tabular.Cell, field string) (*entity.ClockTime, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	hour, minute, err := c.AsClock()
	if err != nil {
		return nil, errs.NewValidationError(field, errs.CodeInvalid, "unreadable time %q", c.String())
	}
	return &entity.ClockTime{Hour: hour, Minute: minute}, nil
}

func rowError(row int, err error) RowError {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return RowError{Row: row, Field: ve.Field, Message: ve.Message}
	}
	return RowError{Row: row, Message: err.Error()}
}
