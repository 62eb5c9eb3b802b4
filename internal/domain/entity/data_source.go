package entity

import (
	"time"

	"roster-service/pkg/tabular"
)

// DataSource is a configured remote roster publication polled by the orchestrator
type DataSource struct {
	ID                 uint
	Name               string
	URL                string
	Format             tabular.Format
	Active             bool
	FetchIntervalHours int
	LastFetched        *time.Time
	ColumnMapping      tabular.Mapping
	DepartmentID       *uint
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsDueForFetch reports whether the source should be fetched at now
func (s *DataSource) IsDueForFetch(now time.Time) bool {
	if s.LastFetched == nil {
		return true
	}
	interval := time.Duration(s.FetchIntervalHours) * time.Hour
	return now.Sub(*s.LastFetched) >= interval
}
