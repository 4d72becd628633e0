package models

import (
	"fmt"
	"time"
)

// AvailabilityWindow is a tutor's recurring weekly open-hours slot for one
// weekday. Times are HH:MM clock strings; start must precede end. Multiple
// windows per tutor per day are permitted and may overlap each other.
type AvailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	Weekday   Weekday   `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Slot renders the window as a display string, e.g. "monday 09:00-17:00".
func (w AvailabilityWindow) Slot() string {
	return fmt.Sprintf("%s %s-%s", w.Weekday, w.StartTime, w.EndTime)
}

// AvailabilityFilter scopes window listing queries.
type AvailabilityFilter struct {
	TutorID string
	Weekday *Weekday
}
