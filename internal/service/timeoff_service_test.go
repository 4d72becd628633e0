package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

type timeOffStoreStub struct {
	requests map[string]*models.TimeOffRequest
}

func newTimeOffStoreStub() *timeOffStoreStub {
	return &timeOffStoreStub{requests: make(map[string]*models.TimeOffRequest)}
}

func (s *timeOffStoreStub) List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, int, error) {
	out := make([]models.TimeOffRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (s *timeOffStoreStub) FindByID(ctx context.Context, id string) (*models.TimeOffRequest, error) {
	if req, ok := s.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *timeOffStoreStub) Create(ctx context.Context, request *models.TimeOffRequest) error {
	if request.ID == "" {
		request.ID = "to-new"
	}
	s.requests[request.ID] = request
	return nil
}

func (s *timeOffStoreStub) UpdateStatus(ctx context.Context, id string, status models.TimeOffStatus) error {
	req, ok := s.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	req.Status = status
	return nil
}

func (s *timeOffStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.requests, id)
	return nil
}

type impactLessonStub struct {
	lessons       map[string]*models.Lesson
	rosters       map[string][]string
	statusUpdates map[string]models.LessonStatus
	tutorUpdates  map[string]string
}

func newImpactLessonStub() *impactLessonStub {
	return &impactLessonStub{
		lessons:       make(map[string]*models.Lesson),
		rosters:       make(map[string][]string),
		statusUpdates: make(map[string]models.LessonStatus),
		tutorUpdates:  make(map[string]string),
	}
}

func (s *impactLessonStub) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if lesson, ok := s.lessons[id]; ok {
		copy := *lesson
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *impactLessonStub) FindScheduledInSpan(ctx context.Context, tutorID string, startDate, endDate time.Time) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range s.lessons {
		if lesson.TutorID != tutorID || lesson.Status != models.LessonStatusScheduled {
			continue
		}
		if lesson.StartTime.After(endDate.AddDate(0, 0, 1)) || lesson.EndTime.Before(startDate) {
			continue
		}
		out = append(out, *lesson)
	}
	return out, nil
}

func (s *impactLessonStub) ListStudentIDs(ctx context.Context, lessonID string) ([]string, error) {
	return s.rosters[lessonID], nil
}

func (s *impactLessonStub) UpdateTutor(ctx context.Context, lessonID, tutorID string) error {
	lesson, ok := s.lessons[lessonID]
	if !ok {
		return sql.ErrNoRows
	}
	lesson.TutorID = tutorID
	s.tutorUpdates[lessonID] = tutorID
	return nil
}

func (s *impactLessonStub) UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error {
	lesson, ok := s.lessons[lessonID]
	if !ok {
		return sql.ErrNoRows
	}
	lesson.Status = status
	s.statusUpdates[lessonID] = status
	return nil
}

type impactTutorStub struct {
	tutors map[string]*models.Tutor
}

func (s *impactTutorStub) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	if tutor, ok := s.tutors[id]; ok {
		copy := *tutor
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type roomRecreatorStub struct {
	calls []string
	err   error
}

func (s *roomRecreatorStub) RecreateRoom(ctx context.Context, lessonID, tutorID string) error {
	s.calls = append(s.calls, lessonID+":"+tutorID)
	return s.err
}

func newTimeOffFixture() (*TimeOffService, *timeOffStoreStub, *impactLessonStub, *impactTutorStub, *roomRecreatorStub) {
	store := newTimeOffStoreStub()
	lessons := newImpactLessonStub()
	tutors := &impactTutorStub{tutors: map[string]*models.Tutor{
		"tutor-1": {ID: "tutor-1", FirstName: "Ann", LastName: "Ames", Active: true},
		"tutor-2": {ID: "tutor-2", FirstName: "Ben", LastName: "Beck", Active: true},
	}}
	rooms := &roomRecreatorStub{}
	svc := NewTimeOffService(store, lessons, tutors, rooms, nil, nil)
	return svc, store, lessons, tutors, rooms
}

func seedLesson(lessons *impactLessonStub, id, tutorID string, start time.Time) {
	lessons.lessons[id] = &models.Lesson{
		ID:        id,
		TutorID:   tutorID,
		Title:     "Lesson " + id,
		Subject:   "Math",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    models.LessonStatusScheduled,
		Type:      models.LessonTypeOrdinary,
	}
}

func TestTimeOffCreateStartsPending(t *testing.T) {
	svc, store, _, _, _ := newTimeOffFixture()

	request, err := svc.Create(context.Background(), CreateTimeOffRequest{
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		Reason:    "vacation",
	})
	require.NoError(t, err)
	require.Equal(t, models.TimeOffStatusPending, request.Status)
	require.Len(t, store.requests, 1)
}

func TestTimeOffCreateRejectsInvertedRange(t *testing.T) {
	svc, _, _, _, _ := newTimeOffFixture()

	_, err := svc.Create(context.Background(), CreateTimeOffRequest{
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		Reason:    "vacation",
	})
	require.Error(t, err)
}

func TestTimeOffApprovalReportsImpactedLessons(t *testing.T) {
	svc, store, lessons, _, _ := newTimeOffFixture()
	store.requests["to-1"] = &models.TimeOffRequest{
		ID:        "to-1",
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		Status:    models.TimeOffStatusPending,
	}
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))
	seedLesson(lessons, "lesson-2", "tutor-1", time.Date(2026, 12, 28, 10, 0, 0, 0, time.UTC))
	lessons.rosters["lesson-1"] = []string{"student-1", "student-2"}

	request, conflicts, err := svc.UpdateStatus(context.Background(), "to-1", UpdateTimeOffStatusRequest{Status: models.TimeOffStatusApproved})
	require.NoError(t, err)
	require.Equal(t, models.TimeOffStatusApproved, request.Status)
	require.Len(t, conflicts, 1)
	require.Equal(t, "lesson-1", conflicts[0].LessonID)
	require.Equal(t, []string{"student-1", "student-2"}, conflicts[0].StudentIDs)
}

func TestTimeOffRejectionSkipsImpactScan(t *testing.T) {
	svc, store, lessons, _, _ := newTimeOffFixture()
	store.requests["to-1"] = &models.TimeOffRequest{
		ID:        "to-1",
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		Status:    models.TimeOffStatusPending,
	}
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))

	request, conflicts, err := svc.UpdateStatus(context.Background(), "to-1", UpdateTimeOffStatusRequest{Status: models.TimeOffStatusRejected})
	require.NoError(t, err)
	require.Equal(t, models.TimeOffStatusRejected, request.Status)
	require.Empty(t, conflicts)
}

func TestTimeOffUpdateStatusRejectsDoubleResolution(t *testing.T) {
	svc, store, _, _, _ := newTimeOffFixture()
	store.requests["to-1"] = &models.TimeOffRequest{
		ID:      "to-1",
		TutorID: "tutor-1",
		Status:  models.TimeOffStatusApproved,
	}

	_, _, err := svc.UpdateStatus(context.Background(), "to-1", UpdateTimeOffStatusRequest{Status: models.TimeOffStatusRejected})
	require.Error(t, err)
}

func TestTimeOffDeleteRules(t *testing.T) {
	svc, store, _, _, _ := newTimeOffFixture()
	store.requests["to-1"] = &models.TimeOffRequest{ID: "to-1", TutorID: "tutor-1", Status: models.TimeOffStatusPending}
	store.requests["to-2"] = &models.TimeOffRequest{ID: "to-2", TutorID: "tutor-1", Status: models.TimeOffStatusApproved}

	require.Error(t, svc.Delete(context.Background(), "to-1", "tutor-2"), "only the requester may delete")
	require.Error(t, svc.Delete(context.Background(), "to-2", "tutor-1"), "resolved requests are immutable")
	require.NoError(t, svc.Delete(context.Background(), "to-1", "tutor-1"))
	_, ok := store.requests["to-1"]
	require.False(t, ok)
}

func TestReassignLessonRecreatesRoom(t *testing.T) {
	svc, _, lessons, _, rooms := newTimeOffFixture()
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))

	err := svc.ReassignLesson(context.Background(), "lesson-1", "tutor-2", "time off", "admin-1")
	require.NoError(t, err)
	require.Equal(t, "tutor-2", lessons.lessons["lesson-1"].TutorID)
	require.Equal(t, []string{"lesson-1:tutor-2"}, rooms.calls)
}

func TestReassignLessonSameTutorSkipsRoom(t *testing.T) {
	svc, _, lessons, _, rooms := newTimeOffFixture()
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))

	err := svc.ReassignLesson(context.Background(), "lesson-1", "tutor-1", "noop", "admin-1")
	require.NoError(t, err)
	require.Empty(t, rooms.calls)
}

func TestReassignLessonRoomFailureIsBestEffort(t *testing.T) {
	svc, _, lessons, _, rooms := newTimeOffFixture()
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))
	rooms.err = errors.New("provider down")

	err := svc.ReassignLesson(context.Background(), "lesson-1", "tutor-2", "time off", "admin-1")
	require.NoError(t, err, "room recreation failure must not roll back the reassignment")
	require.Equal(t, "tutor-2", lessons.lessons["lesson-1"].TutorID)
}

func TestResolveAllIsFailureIsolated(t *testing.T) {
	svc, _, lessons, _, _ := newTimeOffFixture()
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))
	seedLesson(lessons, "lesson-2", "tutor-1", time.Date(2026, 12, 21, 12, 0, 0, 0, time.UTC))
	newTutor := "tutor-2"

	outcomes, err := svc.ResolveAll(context.Background(), []models.ConflictResolution{
		{LessonID: "lesson-1", Action: models.ResolutionReassign, NewTutorID: &newTutor},
		{LessonID: "missing", Action: models.ResolutionCancel},
		{LessonID: "lesson-2", Action: models.ResolutionCancel},
	}, "admin-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	require.True(t, outcomes[0].Applied)
	require.False(t, outcomes[1].Applied)
	require.NotEmpty(t, outcomes[1].Message)
	require.True(t, outcomes[2].Applied, "a failed entry must not abort later ones")
	require.Equal(t, models.LessonStatusCancelled, lessons.statusUpdates["lesson-2"])
}

func TestResolveAllRescheduleIsUnimplemented(t *testing.T) {
	svc, _, lessons, _, _ := newTimeOffFixture()
	seedLesson(lessons, "lesson-1", "tutor-1", time.Date(2026, 12, 21, 10, 0, 0, 0, time.UTC))

	outcomes, err := svc.ResolveAll(context.Background(), []models.ConflictResolution{
		{LessonID: "lesson-1", Action: models.ResolutionReschedule},
	}, "admin-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.False(t, outcomes[0].Applied)
	require.Equal(t, "not implemented", outcomes[0].Message)
	require.Equal(t, models.LessonStatusScheduled, lessons.lessons["lesson-1"].Status, "reschedule must not mutate the lesson")
}
