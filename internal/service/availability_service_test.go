package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/schedule"
)

type windowRepoStub struct {
	windows map[string][]models.AvailabilityWindow
	errFor  map[string]error
}

func newWindowRepoStub() *windowRepoStub {
	return &windowRepoStub{
		windows: make(map[string][]models.AvailabilityWindow),
		errFor:  make(map[string]error),
	}
}

func (s *windowRepoStub) add(tutorID string, weekday models.Weekday, start, end string) {
	s.windows[tutorID] = append(s.windows[tutorID], models.AvailabilityWindow{
		ID:        tutorID + "-" + string(weekday) + "-" + start,
		TutorID:   tutorID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
	})
}

func (s *windowRepoStub) ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	if err := s.errFor[tutorID]; err != nil {
		return nil, err
	}
	return s.windows[tutorID], nil
}

func (s *windowRepoStub) ListByTutorAndWeekday(ctx context.Context, tutorID string, weekday models.Weekday) ([]models.AvailabilityWindow, error) {
	if err := s.errFor[tutorID]; err != nil {
		return nil, err
	}
	var out []models.AvailabilityWindow
	for _, w := range s.windows[tutorID] {
		if w.Weekday == weekday {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *windowRepoStub) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	for _, windows := range s.windows {
		for _, w := range windows {
			if w.ID == id {
				copy := w
				return &copy, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (s *windowRepoStub) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	s.windows[window.TutorID] = append(s.windows[window.TutorID], *window)
	return nil
}

func (s *windowRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

type lessonRepoStub struct {
	lessons map[string][]models.Lesson
	hits    []models.StudentLessonHit
	err     error
}

func newLessonRepoStub() *lessonRepoStub {
	return &lessonRepoStub{lessons: make(map[string][]models.Lesson)}
}

func (s *lessonRepoStub) FindOverlapping(ctx context.Context, tutorID string, start, end time.Time, excludeLessonID string) ([]models.Lesson, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Lesson
	for _, lesson := range s.lessons[tutorID] {
		if lesson.ID == excludeLessonID {
			continue
		}
		if schedule.OverlapsHalfOpen(lesson.StartTime, lesson.EndTime, start, end) {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (s *lessonRepoStub) FindStudentOverlapping(ctx context.Context, studentIDs []string, start, end time.Time, excludeLessonID string) ([]models.StudentLessonHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

type timeOffRepoStub struct {
	requests []models.TimeOffRequest
	err      error
}

func (s *timeOffRepoStub) FindApprovedInRange(ctx context.Context, tutorID string, start, end time.Time) ([]models.TimeOffRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.TimeOffRequest
	for _, req := range s.requests {
		if req.TutorID == tutorID && req.Status == models.TimeOffStatusApproved {
			out = append(out, req)
		}
	}
	return out, nil
}

type tutorDirStub struct {
	tutors []models.Tutor
	err    error
}

func (s *tutorDirStub) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	for _, tutor := range s.tutors {
		if tutor.ID == id {
			copy := tutor
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *tutorDirStub) ListActive(ctx context.Context) ([]models.Tutor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tutors, nil
}

func newAvailabilityFixture() (*AvailabilityService, *windowRepoStub, *lessonRepoStub, *timeOffRepoStub, *tutorDirStub) {
	windows := newWindowRepoStub()
	lessons := newLessonRepoStub()
	timeOff := &timeOffRepoStub{}
	tutors := &tutorDirStub{}
	svc := NewAvailabilityService(windows, lessons, timeOff, tutors, nil, nil, nil, 5)
	return svc, windows, lessons, timeOff, tutors
}

// 2026-08-31 is a Monday, 2026-09-01 a Tuesday.
var (
	monday  = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func TestCheckTutorAvailabilityContainment(t *testing.T) {
	svc, windows, _, _, _ := newAvailabilityFixture()
	windows.add("tutor-1", models.WeekdayMonday, "09:00", "17:00")

	t.Run("inside window", func(t *testing.T) {
		conflicts := svc.CheckTutorAvailability(context.Background(), "tutor-1", at(monday, 10, 0), at(monday, 11, 0))
		require.Empty(t, conflicts)
	})

	t.Run("exact window boundaries fit", func(t *testing.T) {
		conflicts := svc.CheckTutorAvailability(context.Background(), "tutor-1", at(monday, 9, 0), at(monday, 17, 0))
		require.Empty(t, conflicts)
	})

	t.Run("starts before window", func(t *testing.T) {
		conflicts := svc.CheckTutorAvailability(context.Background(), "tutor-1", at(monday, 8, 0), at(monday, 10, 0))
		require.Len(t, conflicts, 1)
		require.Equal(t, models.ConflictTutorAvailability, conflicts[0].Type)
		require.Contains(t, conflicts[0].Message, "09:00-17:00")
	})

	t.Run("no windows that weekday", func(t *testing.T) {
		conflicts := svc.CheckTutorAvailability(context.Background(), "tutor-1", at(tuesday, 10, 0), at(tuesday, 11, 0))
		require.Len(t, conflicts, 1)
		require.Contains(t, conflicts[0].Message, "tuesday")
	})
}

func TestCheckTutorAvailabilityQueryFailureDegrades(t *testing.T) {
	svc, windows, _, _, _ := newAvailabilityFixture()
	windows.errFor["tutor-1"] = errors.New("connection reset")

	conflicts := svc.CheckTutorAvailability(context.Background(), "tutor-1", at(monday, 10, 0), at(monday, 11, 0))
	require.Len(t, conflicts, 1)
	require.Equal(t, models.ConflictTutorAvailability, conflicts[0].Type)
	require.Equal(t, "error checking tutor availability", conflicts[0].Message)
}

func TestCheckLessonConflictsHalfOpen(t *testing.T) {
	svc, _, lessons, _, _ := newAvailabilityFixture()
	lessons.lessons["tutor-1"] = []models.Lesson{{
		ID:        "lesson-1",
		TutorID:   "tutor-1",
		Title:     "Algebra",
		StartTime: at(tuesday, 10, 0),
		EndTime:   at(tuesday, 11, 0),
		Status:    models.LessonStatusScheduled,
		Type:      models.LessonTypeOrdinary,
	}}

	t.Run("overlapping request conflicts", func(t *testing.T) {
		conflicts := svc.CheckLessonConflicts(context.Background(), "tutor-1", at(tuesday, 10, 30), at(tuesday, 11, 30), "")
		require.Len(t, conflicts, 1)
		require.Equal(t, models.ConflictLesson, conflicts[0].Type)
		require.Contains(t, conflicts[0].Message, "Algebra")
	})

	t.Run("touching boundary does not conflict", func(t *testing.T) {
		conflicts := svc.CheckLessonConflicts(context.Background(), "tutor-1", at(tuesday, 11, 0), at(tuesday, 12, 0), "")
		require.Empty(t, conflicts)
	})

	t.Run("excluded lesson is ignored", func(t *testing.T) {
		conflicts := svc.CheckLessonConflicts(context.Background(), "tutor-1", at(tuesday, 10, 30), at(tuesday, 11, 30), "lesson-1")
		require.Empty(t, conflicts)
	})
}

func TestCheckTimeOffConflictsInclusiveBoundary(t *testing.T) {
	svc, _, _, timeOff, _ := newAvailabilityFixture()
	timeOff.requests = []models.TimeOffRequest{{
		ID:        "to-1",
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		Reason:    "vacation",
		Status:    models.TimeOffStatusApproved,
	}}

	t.Run("lesson on final day conflicts", func(t *testing.T) {
		start := time.Date(2026, 12, 22, 9, 0, 0, 0, time.UTC)
		conflicts := svc.CheckTimeOffConflicts(context.Background(), "tutor-1", start, start.Add(time.Hour))
		require.Len(t, conflicts, 1)
		require.Equal(t, models.ConflictTimeOff, conflicts[0].Type)
		require.Contains(t, conflicts[0].Message, "vacation")
	})

	t.Run("lesson the day after does not", func(t *testing.T) {
		start := time.Date(2026, 12, 23, 9, 0, 0, 0, time.UTC)
		conflicts := svc.CheckTimeOffConflicts(context.Background(), "tutor-1", start, start.Add(time.Hour))
		require.Empty(t, conflicts)
	})
}

func TestPerformFullCheckAvailablePath(t *testing.T) {
	svc, windows, _, _, _ := newAvailabilityFixture()
	windows.add("tutor-1", models.WeekdayMonday, "09:00", "17:00")

	result, err := svc.PerformFullCheck(context.Background(), AvailabilityCheckRequest{
		TutorID:   "tutor-1",
		StartTime: at(monday, 10, 0),
		EndTime:   at(monday, 11, 0),
	})
	require.NoError(t, err)
	require.True(t, result.IsAvailable)
	require.Empty(t, result.Conflicts)
	require.Empty(t, result.Suggestions)
	require.False(t, result.HasAlternatives)
}

func TestPerformFullCheckMergesAndSuggests(t *testing.T) {
	svc, windows, lessons, _, tutors := newAvailabilityFixture()
	// tutor-1 has no Monday windows, so the availability check conflicts and
	// the alternative scan runs.
	windows.add("tutor-2", models.WeekdayMonday, "08:00", "18:00")
	tutors.tutors = []models.Tutor{
		{ID: "tutor-1", FirstName: "Ann", LastName: "Original", Active: true},
		{ID: "tutor-2", FirstName: "Ben", LastName: "Backup", Active: true},
	}
	lessons.hits = []models.StudentLessonHit{{
		LessonID:    "lesson-9",
		LessonTitle: "Chem",
		StartTime:   at(monday, 10, 0),
		EndTime:     at(monday, 11, 0),
		StudentID:   "student-1",
		StudentName: "Pat Lee",
	}}

	result, err := svc.PerformFullCheck(context.Background(), AvailabilityCheckRequest{
		TutorID:    "tutor-1",
		StartTime:  at(monday, 10, 0),
		EndTime:    at(monday, 11, 0),
		StudentIDs: []string{"student-1"},
	})
	require.NoError(t, err)
	require.False(t, result.IsAvailable)
	require.Len(t, result.Conflicts, 2)
	// Availability entries always precede student entries.
	require.Equal(t, models.ConflictTutorAvailability, result.Conflicts[0].Type)
	require.Equal(t, models.ConflictStudent, result.Conflicts[1].Type)
	require.Len(t, result.Suggestions, 2)
	require.True(t, result.HasAlternatives)
	require.Len(t, result.AlternativeTutors, 1)
	require.Equal(t, "tutor-2", result.AlternativeTutors[0].TutorID)
	// The shared student conflict follows the candidate too.
	require.True(t, result.AlternativeTutors[0].HasConflict)
}

func TestFindAlternativeTutorsRanking(t *testing.T) {
	svc, windows, lessons, _, tutors := newAvailabilityFixture()
	tutors.tutors = []models.Tutor{
		{ID: "tutor-1", FirstName: "Zoe", LastName: "Original", Active: true},
		{ID: "tutor-2", FirstName: "Cara", LastName: "Smith", Active: true},
		{ID: "tutor-3", FirstName: "Abe", LastName: "Jones", Active: true},
		{ID: "tutor-4", FirstName: "Bea", LastName: "Adams", Active: true},
		{ID: "tutor-5", FirstName: "Dan", LastName: "Poor", Active: true},
	}
	for _, id := range []string{"tutor-2", "tutor-3", "tutor-4"} {
		windows.add(id, models.WeekdayMonday, "09:00", "17:00")
	}
	// tutor-5 has no Monday window and must not appear at all.
	// tutor-4 is busy at the requested time, so it sorts after the
	// conflict-free candidates despite the earliest name.
	lessons.lessons["tutor-4"] = []models.Lesson{{
		ID:        "lesson-4",
		TutorID:   "tutor-4",
		Title:     "Busy",
		StartTime: at(monday, 10, 0),
		EndTime:   at(monday, 11, 0),
	}}

	candidates, err := svc.FindAlternativeTutors(context.Background(), "tutor-1", at(monday, 10, 0), at(monday, 11, 0), nil)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	var ids []string
	for _, c := range candidates {
		ids = append(ids, c.TutorID)
	}
	require.NotContains(t, ids, "tutor-1")
	require.NotContains(t, ids, "tutor-5")

	// Conflict-free first, each group ordered by "first last".
	require.Equal(t, []string{"tutor-3", "tutor-2", "tutor-4"}, ids)
	require.False(t, candidates[0].HasConflict)
	require.False(t, candidates[1].HasConflict)
	require.True(t, candidates[2].HasConflict)
	require.Equal(t, []string{"09:00-17:00"}, candidates[0].AvailableSlots)
}

func TestFindAlternativeTutorsSkipsUnprovableCandidates(t *testing.T) {
	svc, windows, _, _, tutors := newAvailabilityFixture()
	tutors.tutors = []models.Tutor{
		{ID: "tutor-2", FirstName: "Cara", LastName: "Smith", Active: true},
		{ID: "tutor-3", FirstName: "Abe", LastName: "Jones", Active: true},
	}
	windows.add("tutor-3", models.WeekdayMonday, "09:00", "17:00")
	windows.errFor["tutor-2"] = errors.New("timeout")

	candidates, err := svc.FindAlternativeTutors(context.Background(), "tutor-1", at(monday, 10, 0), at(monday, 11, 0), nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "tutor-3", candidates[0].TutorID)
}

func TestFindAlternativeTutorsCap(t *testing.T) {
	windows := newWindowRepoStub()
	tutors := &tutorDirStub{}
	for _, id := range []string{"a", "b", "c", "d"} {
		tutors.tutors = append(tutors.tutors, models.Tutor{ID: id, FirstName: id, LastName: "Tutor", Active: true})
		windows.add(id, models.WeekdayMonday, "09:00", "17:00")
	}
	svc := NewAvailabilityService(windows, newLessonRepoStub(), &timeOffRepoStub{}, tutors, nil, nil, nil, 2)

	candidates, err := svc.FindAlternativeTutors(context.Background(), "original", at(monday, 10, 0), at(monday, 11, 0), nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
}
