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

func newTimeOffRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timeOffRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "tutor_id", "start_date", "end_date", "reason", "status", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "tutor-1", time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC), "vacation", "approved", time.Now(), time.Now())
	}
	return rows
}

func TestTimeOffRepositoryFindApprovedInRange(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()

	repo := NewTimeOffRepository(db)
	start := time.Date(2026, 12, 22, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("status = 'approved' AND start_date::date <= $3::date AND end_date::date >= $2::date")).
		WithArgs("tutor-1", start, end).
		WillReturnRows(timeOffRows("to-1"))

	requests, err := repo.FindApprovedInRange(context.Background(), "tutor-1", start, end)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, models.TimeOffStatusApproved, requests[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeOffRepositoryCreateDefaultsID(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()

	repo := NewTimeOffRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_off_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.TimeOffRequest{
		TutorID:   "tutor-1",
		StartDate: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 22, 0, 0, 0, 0, time.UTC),
		Reason:    "vacation",
		Status:    models.TimeOffStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeOffRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()

	repo := NewTimeOffRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_off_requests SET status = $2")).
		WithArgs("to-1", models.TimeOffStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "to-1", models.TimeOffStatusApproved))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeOffRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newTimeOffRepoMock(t)
	defer cleanup()

	repo := NewTimeOffRepository(db)
	status := models.TimeOffStatusPending

	mock.ExpectQuery(regexp.QuoteMeta("tutor_id = $1 AND status = $2")).
		WithArgs("tutor-1", status).
		WillReturnRows(timeOffRows("to-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("tutor-1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.TimeOffFilter{TutorID: "tutor-1", Status: &status})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
