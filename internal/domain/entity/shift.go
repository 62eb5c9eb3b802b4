package entity

import (
	"fmt"
	"time"
)

// ShiftType classifies a duty assignment
type ShiftType string

const (
	ShiftDay     ShiftType = "day"
	ShiftNight   ShiftType = "night"
	ShiftWeekend ShiftType = "weekend"
	ShiftHoliday ShiftType = "holiday"
	ShiftNormal  ShiftType = "normal"
	ShiftOnCall  ShiftType = "on_call"
)

var shiftTypeLabels = map[ShiftType]string{
	ShiftDay:     "Gündüz",
	ShiftNight:   "Gece",
	ShiftWeekend: "Hafta Sonu",
	ShiftHoliday: "Resmi Tatil",
	ShiftNormal:  "Normal",
	ShiftOnCall:  "İcap",
}

// Valid reports whether t is a known shift type
func (t ShiftType) Valid() bool {
	_, ok := shiftTypeLabels[t]
	return ok
}

// Label returns the human readable name used in exports
func (t ShiftType) Label() string {
	if l, ok := shiftTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ClockTime is a wall clock time of day with minute precision
type ClockTime struct {
	Hour   int
	Minute int
}

// NewClockTime returns a validated clock time
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %02d:%02d", hour, minute)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Shift is one duty assignment of one doctor on one date
type Shift struct {
	ID          uint
	ShiftListID uint
	DoctorID    uint
	Date        time.Time
	Type        ShiftType
	StartTime   *ClockTime
	EndTime     *ClockTime
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Window returns the half-open [start, end) minute interval the shift occupies.
// Missing bounds extend to the start or end of the day; an overnight shift is cut at midnight.
func (s *Shift) Window() (int, int) {
	start, end := 0, 24*60
	if s.StartTime != nil {
		start = s.StartTime.Minutes()
	}
	if s.EndTime != nil {
		end = s.EndTime.Minutes()
	}
	if end <= start {
		end = 24 * 60
	}
	return start, end
}

// Overlaps reports whether two shifts' windows intersect
func (s *Shift) Overlaps(other *Shift) bool {
	aStart, aEnd := s.Window()
	bStart, bEnd := other.Window()
	return aStart < bEnd && aEnd > bStart
}
