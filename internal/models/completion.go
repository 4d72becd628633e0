package models

// CompletionInput is the explicit input for the lesson completion policy.
// The flags derived from it are policy decisions computed at read time, never
// stored fields, and are independent of the lesson's status column.
type CompletionInput struct {
	StudentCount    int
	AttendanceCount int
	HomeworkExists  bool
}

// IsLessonCompleted implements the completion policy: a lesson is done iff it
// has at least one enrolled student, attendance was taken for every one of
// them, and homework exists for the lesson.
func IsLessonCompleted(in CompletionInput) bool {
	return in.StudentCount > 0 &&
		in.AttendanceCount == in.StudentCount &&
		in.HomeworkExists
}

// AttendanceInput is the explicit input for the attendance-derived flags.
type AttendanceInput struct {
	StudentCount int
	ExcusedCount int
	AbsentCount  int
}

// IsCancelledByExcusal reports whether every enrolled student was excused.
func IsCancelledByExcusal(in AttendanceInput) bool {
	return in.StudentCount > 0 && in.ExcusedCount == in.StudentCount
}

// IsFullyAbsent reports whether every enrolled student was marked absent.
func IsFullyAbsent(in AttendanceInput) bool {
	return in.StudentCount > 0 && in.AbsentCount == in.StudentCount
}

// LessonStatusFlags carries the derived per-lesson booleans returned by the
// batched status aggregator.
type LessonStatusFlags struct {
	IsCompleted bool `json:"is_completed"`
	IsCancelled bool `json:"is_cancelled"`
	IsAbsent    bool `json:"is_absent"`
}
