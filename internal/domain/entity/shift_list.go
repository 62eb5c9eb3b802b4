package entity

import (
	"fmt"
	"time"
)

// Shift list provenance
const (
	SourceTypeManual = "manual"
	SourceTypeURL    = "url"
	SourceTypeUpload = "upload"
)

// ShiftList is the schedule aggregate owning a set of shifts
type ShiftList struct {
	ID           uint
	UUID         string
	Title        string
	DepartmentID *uint
	StartDate    time.Time
	EndDate      time.Time
	SourceType   string
	SourceURL    string
	SourceFile   string
	SourceID     *uint
	FetchLogID   *uint
	IsPublished  bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (l *ShiftList) String() string {
	return fmt.Sprintf("%s (%s - %s)", l.Title, l.StartDate.Format("2006-01-02"), l.EndDate.Format("2006-01-02"))
}
