package models

import "time"

// LessonStatus represents the lifecycle state of a lesson.
type LessonStatus string

const (
	LessonStatusScheduled  LessonStatus = "scheduled"
	LessonStatusInProgress LessonStatus = "in_progress"
	LessonStatusCompleted  LessonStatus = "completed"
	LessonStatusCancelled  LessonStatus = "cancelled"
)

// Valid returns true when the status is a supported value.
func (s LessonStatus) Valid() bool {
	switch s {
	case LessonStatusScheduled, LessonStatusInProgress, LessonStatusCompleted, LessonStatusCancelled:
		return true
	default:
		return false
	}
}

// LessonType tags the kind of lesson. Demo lessons are excluded from every
// conflict check.
type LessonType string

const (
	LessonTypeOrdinary LessonType = "ordinary"
	LessonTypeTrial    LessonType = "trial"
	LessonTypeDemo     LessonType = "demo"
)

// Valid returns true when the type is a supported value.
func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeOrdinary, LessonTypeTrial, LessonTypeDemo:
		return true
	default:
		return false
	}
}

// Lesson represents a booked session. Timestamps are absolute and
// timezone-normalized (stored UTC); end is strictly after start.
type Lesson struct {
	ID        string       `db:"id" json:"id"`
	TutorID   string       `db:"tutor_id" json:"tutor_id"`
	Subject   string       `db:"subject" json:"subject"`
	Title     string       `db:"title" json:"title"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	Status    LessonStatus `db:"status" json:"status"`
	Type      LessonType   `db:"lesson_type" json:"lesson_type"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonStudent links an enrolled student to a lesson.
type LessonStudent struct {
	LessonID  string `db:"lesson_id" json:"lesson_id"`
	StudentID string `db:"student_id" json:"student_id"`
}

// LessonRosterRow extends the enrollment link with student metadata.
type LessonRosterRow struct {
	LessonID    string `db:"lesson_id" json:"lesson_id"`
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
}

// StudentLessonHit captures an overlapping lesson found during the student
// double-booking check.
type StudentLessonHit struct {
	LessonID    string    `db:"lesson_id" json:"lesson_id"`
	LessonTitle string    `db:"lesson_title" json:"lesson_title"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
}

// LessonFilter captures filtering options for listing lessons.
type LessonFilter struct {
	TutorID   string
	StudentID string
	Status    *LessonStatus
	Type      *LessonType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
