package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

type recordsLessonStub struct {
	lessons map[string]*models.Lesson
	rosters map[string][]string
}

func (s *recordsLessonStub) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	lesson, ok := s.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *lesson
	return &copy, nil
}

func (s *recordsLessonStub) ListStudentIDs(_ context.Context, lessonID string) ([]string, error) {
	return s.rosters[lessonID], nil
}

type attendanceStoreStub struct {
	records map[string][]models.AttendanceRecord
	upserts []models.AttendanceRecord
}

func (s *attendanceStoreStub) ListByLesson(_ context.Context, lessonID string) ([]models.AttendanceRecord, error) {
	return s.records[lessonID], nil
}

func (s *attendanceStoreStub) Upsert(_ context.Context, record *models.AttendanceRecord) error {
	record.ID = "att-1"
	s.upserts = append(s.upserts, *record)
	return nil
}

type homeworkStoreStub struct {
	items   map[string][]models.Homework
	created []models.Homework
}

func (s *homeworkStoreStub) ListByLesson(_ context.Context, lessonID string) ([]models.Homework, error) {
	return s.items[lessonID], nil
}

func (s *homeworkStoreStub) Create(_ context.Context, hw *models.Homework) error {
	hw.ID = "hw-1"
	s.created = append(s.created, *hw)
	return nil
}

func newRecordsFixture() (*LessonRecordsService, *recordsLessonStub, *attendanceStoreStub, *homeworkStoreStub) {
	lessons := &recordsLessonStub{
		lessons: map[string]*models.Lesson{
			"lesson-1": {ID: "lesson-1", TutorID: "tutor-1", Title: "Algebra"},
		},
		rosters: map[string][]string{
			"lesson-1": {"student-1", "student-2"},
		},
	}
	attendance := &attendanceStoreStub{records: map[string][]models.AttendanceRecord{}}
	homework := &homeworkStoreStub{items: map[string][]models.Homework{}}
	svc := NewLessonRecordsService(lessons, attendance, homework, nil, nil)
	return svc, lessons, attendance, homework
}

func TestMarkAttendanceUpsertsForEnrolledStudent(t *testing.T) {
	svc, _, attendance, _ := newRecordsFixture()

	record, err := svc.MarkAttendance(context.Background(), "lesson-1", MarkAttendanceRequest{
		StudentID: "student-2",
		Status:    models.AttendanceStatusPresent,
	})
	require.NoError(t, err)
	require.Equal(t, "att-1", record.ID)
	require.Len(t, attendance.upserts, 1)
	require.Equal(t, "lesson-1", attendance.upserts[0].LessonID)
	require.Equal(t, models.AttendanceStatusPresent, attendance.upserts[0].Status)
}

func TestMarkAttendanceRejectsUnenrolledStudent(t *testing.T) {
	svc, _, attendance, _ := newRecordsFixture()

	_, err := svc.MarkAttendance(context.Background(), "lesson-1", MarkAttendanceRequest{
		StudentID: "student-9",
		Status:    models.AttendanceStatusAbsent,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not enrolled")
	require.Empty(t, attendance.upserts)
}

func TestMarkAttendanceRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newRecordsFixture()

	_, err := svc.MarkAttendance(context.Background(), "lesson-1", MarkAttendanceRequest{
		StudentID: "student-1",
		Status:    models.AttendanceStatus("vanished"),
	})
	require.Error(t, err)
}

func TestMarkAttendanceUnknownLesson(t *testing.T) {
	svc, _, _, _ := newRecordsFixture()

	_, err := svc.MarkAttendance(context.Background(), "lesson-404", MarkAttendanceRequest{
		StudentID: "student-1",
		Status:    models.AttendanceStatusPresent,
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAddHomeworkCreatesItem(t *testing.T) {
	svc, _, _, homework := newRecordsFixture()

	due := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	hw, err := svc.AddHomework(context.Background(), "lesson-1", CreateHomeworkRequest{
		Title: "Chapter 3 exercises",
		DueAt: &due,
	})
	require.NoError(t, err)
	require.Equal(t, "hw-1", hw.ID)
	require.Len(t, homework.created, 1)
	require.Equal(t, "lesson-1", homework.created[0].LessonID)
}

func TestAddHomeworkRequiresTitle(t *testing.T) {
	svc, _, _, homework := newRecordsFixture()

	_, err := svc.AddHomework(context.Background(), "lesson-1", CreateHomeworkRequest{})
	require.Error(t, err)
	require.Empty(t, homework.created)
}

func TestListAttendanceUnknownLesson(t *testing.T) {
	svc, _, _, _ := newRecordsFixture()

	_, err := svc.ListAttendance(context.Background(), "lesson-404")
	require.Error(t, err)
}
