package models

import "time"

// TimeOffStatus represents the state of a time-off request.
type TimeOffStatus string

const (
	TimeOffStatusPending  TimeOffStatus = "pending"
	TimeOffStatusApproved TimeOffStatus = "approved"
	TimeOffStatusRejected TimeOffStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s TimeOffStatus) Valid() bool {
	switch s {
	case TimeOffStatusPending, TimeOffStatusApproved, TimeOffStatusRejected:
		return true
	default:
		return false
	}
}

// TimeOffRequest represents a tutor's absence window at date granularity.
// Both boundary dates are inclusive. Only approved requests participate in
// conflict detection.
type TimeOffRequest struct {
	ID        string        `db:"id" json:"id"`
	TutorID   string        `db:"tutor_id" json:"tutor_id"`
	StartDate time.Time     `db:"start_date" json:"start_date"`
	EndDate   time.Time     `db:"end_date" json:"end_date"`
	Reason    string        `db:"reason" json:"reason"`
	Status    TimeOffStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// TimeOffFilter captures filtering options for listing requests.
type TimeOffFilter struct {
	TutorID   string
	Status    *TimeOffStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
