package models

import "time"

// ConflictType classifies a detected scheduling conflict.
type ConflictType string

const (
	ConflictTutorAvailability ConflictType = "tutor_availability"
	ConflictLesson            ConflictType = "lesson_conflict"
	ConflictTimeOff           ConflictType = "time_off"
	ConflictStudent           ConflictType = "student_conflict"
)

// Conflict is one typed entry in a conflict report.
type Conflict struct {
	Type    ConflictType           `json:"type"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
}

// AlternativeTutorCandidate describes another tutor who could take the
// requested slot.
type AlternativeTutorCandidate struct {
	TutorID        string   `json:"tutor_id"`
	FullName       string   `json:"full_name"`
	AvailableSlots []string `json:"available_slots"`
	HasConflict    bool     `json:"has_conflict"`
}

// AvailabilityCheckResult aggregates all detected conflicts for one booking
// attempt plus derived suggestions and alternatives.
type AvailabilityCheckResult struct {
	IsAvailable       bool                        `json:"is_available"`
	Conflicts         []Conflict                  `json:"conflicts"`
	Suggestions       []string                    `json:"suggestions"`
	AlternativeTutors []AlternativeTutorCandidate `json:"alternative_tutors"`
	HasAlternatives   bool                        `json:"has_alternatives"`
}

// TimeOffConflict is a scheduled lesson invalidated by an approved time-off
// window, pending an admin resolution.
type TimeOffConflict struct {
	LessonID   string    `json:"lesson_id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	StudentIDs []string  `json:"student_ids"`
}

// ResolutionAction identifies how an admin resolves one conflicting lesson.
type ResolutionAction string

const (
	ResolutionReassign ResolutionAction = "reassign"
	ResolutionCancel   ResolutionAction = "cancel"
	// ResolutionReschedule is declared but intentionally unimplemented;
	// applying it yields a not-implemented outcome.
	ResolutionReschedule ResolutionAction = "reschedule"
)

// Valid returns true when the action is a declared value.
func (a ResolutionAction) Valid() bool {
	switch a {
	case ResolutionReassign, ResolutionCancel, ResolutionReschedule:
		return true
	default:
		return false
	}
}

// ConflictResolution is one admin decision for one conflicting lesson.
type ConflictResolution struct {
	LessonID   string           `json:"lesson_id" validate:"required"`
	Action     ResolutionAction `json:"action" validate:"required"`
	NewTutorID *string          `json:"new_tutor_id,omitempty"`
	Reason     string           `json:"reason"`
}

// ResolutionOutcome reports what happened to one resolution entry.
type ResolutionOutcome struct {
	LessonID string           `json:"lesson_id"`
	Action   ResolutionAction `json:"action"`
	Applied  bool             `json:"applied"`
	Message  string           `json:"message,omitempty"`
}
