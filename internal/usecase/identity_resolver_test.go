package usecase

import (
	"context"
	"testing"

	"roster-service/internal/domain/entity"
	"roster-service/internal/domain/errs"
	"roster-service/internal/domain/repository"
	"roster-service/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityResolver_ResolveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewIdentityResolver(nil, f.log)
	dept := uint(3)

	first, outcome, err := r.Resolve(ctx, f.store, "Prof. Dr. Ayşe Nur Yılmaz", &dept, Contact{})
	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, "Prof. Dr.", first.Title)
	assert.Equal(t, "Ayşe Nur", first.GivenName)
	assert.Equal(t, "Yılmaz", first.FamilyName)
	assert.True(t, first.Active)

	second, outcome, err := r.Resolve(ctx, f.store, "  Ayşe   Nur Yılmaz ", &dept, Contact{})
	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Equal(t, first.ID, second.ID)

	doctors, err := f.store.Doctors().List(ctx, repository.DoctorFilter{})
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}

func TestIdentityResolver_DepartmentScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewIdentityResolver(nil, f.log)
	a, b := uint(1), uint(2)

	inA, _, err := r.Resolve(ctx, f.store, "Dr. Ali Veli", &a, Contact{})
	require.NoError(t, err)
	inB, outcome, err := r.Resolve(ctx, f.store, "Dr. Ali Veli", &b, Contact{})
	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.NotEqual(t, inA.ID, inB.ID)
}

func TestIdentityResolver_EmptyName(t *testing.T) {
	f := newFixture(t)
	_, _, err := NewIdentityResolver(nil, f.log).Resolve(context.Background(), f.store, "Dr.", nil, Contact{})

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, errs.CodeRequired, ve.Code)
}

func TestIdentityResolver_ContactUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewIdentityResolver(nil, f.log)

	doctor, outcome, err := r.Resolve(ctx, f.store, "Mehmet Demir", nil, Contact{Phone: "0532 123 45 67", Email: " m.demir@hastane.gov.tr "})
	require.NoError(t, err)
	assert.True(t, outcome.ContactUpdated)
	assert.Equal(t, "+905321234567", doctor.Phone)
	assert.Equal(t, "m.demir@hastane.gov.tr", doctor.Email)

	// empty values never clear
	doctor, outcome, err = r.Resolve(ctx, f.store, "Mehmet Demir", nil, Contact{})
	require.NoError(t, err)
	assert.False(t, outcome.ContactUpdated)
	assert.Equal(t, "+905321234567", doctor.Phone)

	// same number in another notation is not a change
	_, outcome, err = r.Resolve(ctx, f.store, "Mehmet Demir", nil, Contact{Phone: "905321234567"})
	require.NoError(t, err)
	assert.False(t, outcome.ContactUpdated)

	// an unrecognized number keeps the stored one
	doctor, outcome, err = r.Resolve(ctx, f.store, "Mehmet Demir", nil, Contact{Phone: "12-34"})
	require.NoError(t, err)
	assert.Equal(t, "12-34", outcome.PhoneRejected)
	assert.Equal(t, "+905321234567", doctor.Phone)

	stored, err := f.store.Doctors().GetByID(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, "+905321234567", stored.Phone)
}

func TestIdentityResolver_UnrecognizedPhoneOnNewDoctorKeepsRawValue(t *testing.T) {
	f := newFixture(t)
	doctor, outcome, err := NewIdentityResolver(nil, f.log).Resolve(context.Background(), f.store, "Zeynep Ak", nil, Contact{Phone: "dahili 4411"})
	require.NoError(t, err)
	assert.Equal(t, "dahili 4411", outcome.PhoneRejected)
	assert.Equal(t, "dahili 4411", doctor.Phone)
}

// staleMatcher misses on its first call, as if another worker created the doctor in between
type staleMatcher struct {
	calls int
}

func (m *staleMatcher) Match(ctx context.Context, doctors repository.DoctorRepository, name utils.ParsedName, departmentID *uint) (*entity.Doctor, error) {
	m.calls++
	if m.calls == 1 {
		return nil, repository.ErrNotFound
	}
	return ExactNameMatcher{}.Match(ctx, doctors, name, departmentID)
}

func TestIdentityResolver_CreationRaceFallsBackToExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := &entity.Doctor{GivenName: "Ali", FamilyName: "Veli", Active: true}
	require.NoError(t, f.store.Doctors().Create(ctx, existing))

	matcher := &staleMatcher{}
	err := f.store.Transaction(ctx, func(tx repository.Store) error {
		doctor, outcome, err := NewIdentityResolver(matcher, f.log).Resolve(ctx, tx, "Ali Veli", nil, Contact{})
		require.NoError(t, err)
		assert.False(t, outcome.Created)
		assert.Equal(t, existing.ID, doctor.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, matcher.calls)
}
