package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lessonRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "tutor_id", "subject", "title", "start_time", "end_time", "status", "lesson_type", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "tutor-1", "math", "Algebra", time.Now(), time.Now().Add(time.Hour), "scheduled", "ordinary", time.Now(), time.Now())
	}
	return rows
}

func TestLessonRepositoryFindOverlapping(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	start := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("status IN ('scheduled', 'in_progress') AND lesson_type <> 'demo' AND start_time < $3 AND $2 < end_time")).
		WithArgs("tutor-1", start, end).
		WillReturnRows(lessonRows("lesson-1"))

	lessons, err := repo.FindOverlapping(context.Background(), "tutor-1", start, end, "")
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	require.Equal(t, "lesson-1", lessons[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindOverlappingExcludesEditedLesson(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	start := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $4")).
		WithArgs("tutor-1", start, end, "lesson-9").
		WillReturnRows(lessonRows())

	lessons, err := repo.FindOverlapping(context.Background(), "tutor-1", start, end, "lesson-9")
	require.NoError(t, err)
	require.Empty(t, lessons)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindStudentOverlapping(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"lesson_id", "lesson_title", "start_time", "end_time", "student_id", "student_name"}).
		AddRow("lesson-1", "Chem", start, end, "student-1", "Pat Lee")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ls.student_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg(), start, end).
		WillReturnRows(rows)

	hits, err := repo.FindStudentOverlapping(context.Background(), []string{"student-1"}, start, end, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Pat Lee", hits[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindStudentOverlappingEmptyInput(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	hits, err := repo.FindStudentOverlapping(context.Background(), nil, time.Now(), time.Now().Add(time.Hour), "")
	require.NoError(t, err)
	require.Nil(t, hits)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindScheduledInSpanUsesInclusiveDates(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	startDate := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("status = 'scheduled' AND start_time::date <= $3::date AND end_time::date >= $2::date")).
		WithArgs("tutor-1", startDate, endDate).
		WillReturnRows(lessonRows("lesson-1", "lesson-2"))

	lessons, err := repo.FindScheduledInSpan(context.Background(), "tutor-1", startDate, endDate)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateEnrollsRosterInTx(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lessons")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lesson := &models.Lesson{
		TutorID:   "tutor-1",
		Subject:   "math",
		Title:     "Algebra",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
		Status:    models.LessonStatusScheduled,
		Type:      models.LessonTypeOrdinary,
	}
	require.NoError(t, repo.Create(context.Background(), lesson, []string{"student-1", "student-2"}))
	require.NotEmpty(t, lesson.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateRollsBackOnRosterFailure(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lessons")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_students")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	lesson := &models.Lesson{
		TutorID:   "tutor-1",
		Subject:   "math",
		Title:     "Algebra",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
		Status:    models.LessonStatusScheduled,
		Type:      models.LessonTypeOrdinary,
	}
	require.Error(t, repo.Create(context.Background(), lesson, []string{"student-1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListRosterByLessonIDs(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	rows := sqlmock.NewRows([]string{"lesson_id", "student_id", "student_name"}).
		AddRow("lesson-1", "student-1", "Pat Lee").
		AddRow("lesson-1", "student-2", "Sam Roe")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ls.lesson_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	roster, err := repo.ListRosterByLessonIDs(context.Background(), []string{"lesson-1"})
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()

	repo := NewLessonRepository(db)
	status := models.LessonStatusScheduled

	mock.ExpectQuery(regexp.QuoteMeta("tutor_id = $1 AND status = $2")).
		WithArgs("tutor-1", status).
		WillReturnRows(lessonRows("lesson-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("tutor-1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	lessons, total, err := repo.List(context.Background(), models.LessonFilter{TutorID: "tutor-1", Status: &status})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
