package models

import "time"

// Homework represents an assignment attached to a lesson. The completion
// policy only cares about existence, not submission state.
type Homework struct {
	ID          string     `db:"id" json:"id"`
	LessonID    string     `db:"lesson_id" json:"lesson_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	DueAt       *time.Time `db:"due_at" json:"due_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
