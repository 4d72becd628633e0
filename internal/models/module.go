package models

import "time"

// LearningModule is one unit of self-paced content shown on the learning hub.
// Ordering for a student is personalized and cached; staleness is acceptable
// since it only affects non-critical content sequencing.
type LearningModule struct {
	ID        string    `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Title     string    `db:"title" json:"title"`
	Subject   string    `db:"subject" json:"subject"`
	Position  int       `db:"position" json:"position"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
