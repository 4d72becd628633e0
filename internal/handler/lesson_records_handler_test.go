package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/service"
)

type recordsLessonMock struct {
	rosters map[string][]string
}

func (m *recordsLessonMock) FindByID(_ context.Context, id string) (*models.Lesson, error) {
	if _, ok := m.rosters[id]; !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Lesson{ID: id}, nil
}

func (m *recordsLessonMock) ListStudentIDs(_ context.Context, lessonID string) ([]string, error) {
	return m.rosters[lessonID], nil
}

type recordsAttendanceMock struct {
	upserts []models.AttendanceRecord
}

func (m *recordsAttendanceMock) ListByLesson(_ context.Context, _ string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (m *recordsAttendanceMock) Upsert(_ context.Context, record *models.AttendanceRecord) error {
	m.upserts = append(m.upserts, *record)
	return nil
}

type recordsHomeworkMock struct{}

func (m *recordsHomeworkMock) ListByLesson(_ context.Context, _ string) ([]models.Homework, error) {
	return nil, nil
}

func (m *recordsHomeworkMock) Create(_ context.Context, _ *models.Homework) error {
	return nil
}

func newRecordsHandler(attendance *recordsAttendanceMock) *LessonRecordsHandler {
	lessons := &recordsLessonMock{rosters: map[string][]string{"lesson-1": {"student-1"}}}
	svc := service.NewLessonRecordsService(lessons, attendance, &recordsHomeworkMock{}, nil, nil)
	return &LessonRecordsHandler{records: svc}
}

func markAttendanceContext(t *testing.T, lessonID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPut, "/lessons/"+lessonID+"/attendance", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: lessonID}}
	return c, w
}

func TestMarkAttendanceHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	attendance := &recordsAttendanceMock{}
	h := newRecordsHandler(attendance)

	c, w := markAttendanceContext(t, "lesson-1", `{"student_id":"student-1","status":"present"}`)
	h.MarkAttendance(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, attendance.upserts, 1)
	require.Equal(t, models.AttendanceStatusPresent, attendance.upserts[0].Status)
}

func TestMarkAttendanceHandlerBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newRecordsHandler(&recordsAttendanceMock{})

	c, w := markAttendanceContext(t, "lesson-1", `{"student_id":`)
	h.MarkAttendance(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAttendanceHandlerUnknownLesson(t *testing.T) {
	gin.SetMode(gin.TestMode)
	attendance := &recordsAttendanceMock{}
	h := newRecordsHandler(attendance)

	c, w := markAttendanceContext(t, "lesson-404", `{"student_id":"student-1","status":"present"}`)
	h.MarkAttendance(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, attendance.upserts)
}
