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

func newAvailabilityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func availabilityRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tutor_id", "weekday", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("win-1", "tutor-1", "monday", "09:00", "12:00", time.Now(), time.Now()).
		AddRow("win-2", "tutor-1", "monday", "14:00", "17:00", time.Now(), time.Now())
}

func TestAvailabilityRepositoryListByTutorAndWeekday(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE tutor_id = $1 AND weekday = $2 ORDER BY start_time ASC")).
		WithArgs("tutor-1", models.WeekdayMonday).
		WillReturnRows(availabilityRows())

	windows, err := repo.ListByTutorAndWeekday(context.Background(), "tutor-1", models.WeekdayMonday)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.Equal(t, models.WeekdayMonday, windows[0].Weekday)
	require.Equal(t, "09:00", windows[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateDefaultsID(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tutor_availability")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	window := &models.AvailabilityWindow{
		TutorID:   "tutor-1",
		Weekday:   models.WeekdayMonday,
		StartTime: "09:00",
		EndTime:   "17:00",
	}
	require.NoError(t, repo.Create(context.Background(), window))
	require.NotEmpty(t, window.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	repo := NewAvailabilityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tutor_availability WHERE id = $1")).
		WithArgs("win-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "win-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
