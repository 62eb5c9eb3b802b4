package entity

import "time"

// Fetch log status
const (
	FetchStatusRunning = "running"
	FetchStatusSuccess = "success"
	FetchStatusPartial = "partial"
	FetchStatusFailed  = "failed"
)

// FetchLog records a single ingestion attempt
type FetchLog struct {
	ID               uint
	SourceID         *uint
	UploadName       string
	TaskID           string
	Attempt          int
	Status           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	RecordsProcessed int
	RecordsCreated   int
	RecordsUpdated   int
	RecordsFailed    int
	RecordsSkipped   int
	ErrorMessage     string
	RawData          string
}

// Duration returns how long the attempt took, or zero while it is still running
func (l *FetchLog) Duration() time.Duration {
	if l.CompletedAt == nil {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}

// IsTerminal reports whether the attempt has finished
func (l *FetchLog) IsTerminal() bool {
	return l.Status != FetchStatusRunning && l.CompletedAt != nil
}
