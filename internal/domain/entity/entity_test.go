package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoctorMasking(t *testing.T) {
	d := &Doctor{Phone: "+905321234567", Email: "ayse.yilmaz@hastane.gov.tr"}

	assert.Equal(t, "*********4567", d.MaskedPhone())
	assert.Equal(t, "a*********z@hastane.gov.tr", d.MaskedEmail())

	short := &Doctor{Phone: "12345", Email: "ab@x.com"}
	assert.Equal(t, "12345", short.MaskedPhone())
	assert.Equal(t, "a*@x.com", short.MaskedEmail())

	none := &Doctor{Email: "not-an-email"}
	assert.Equal(t, "not-an-email", none.MaskedEmail())
}

func TestDoctorDisplayName(t *testing.T) {
	d := &Doctor{Title: "Dr.", GivenName: "Ayşe", FamilyName: "Yılmaz"}
	assert.Equal(t, "Dr. Ayşe Yılmaz", d.DisplayName())

	d = &Doctor{FamilyName: "Demir"}
	assert.Equal(t, "Demir", d.DisplayName())
}

func TestDataSourceIsDueForFetch(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	s := &DataSource{FetchIntervalHours: 24}
	assert.True(t, s.IsDueForFetch(now))

	last := now.Add(-23 * time.Hour)
	s.LastFetched = &last
	assert.False(t, s.IsDueForFetch(now))

	last = now.Add(-24 * time.Hour)
	s.LastFetched = &last
	assert.True(t, s.IsDueForFetch(now))
}

func TestShiftOverlaps(t *testing.T) {
	at := func(h, m int) *ClockTime { return &ClockTime{Hour: h, Minute: m} }
	existing := &Shift{StartTime: at(8, 0), EndTime: at(16, 0)}

	assert.True(t, (&Shift{StartTime: at(15, 0), EndTime: at(23, 0)}).Overlaps(existing))
	assert.False(t, (&Shift{StartTime: at(16, 0), EndTime: at(23, 0)}).Overlaps(existing))
	assert.True(t, (&Shift{}).Overlaps(existing), "a shift without times covers the whole day")
}

func TestShiftTypeLabel(t *testing.T) {
	assert.Equal(t, "Gece", ShiftNight.Label())
	assert.True(t, ShiftOnCall.Valid())
	assert.False(t, ShiftType("brunch").Valid())
}
