package entity

import "time"

// Department is the scoping unit for doctors and schedules
type Department struct {
	ID        uint
	Name      string
	Code      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
