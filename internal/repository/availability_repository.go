package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

// AvailabilityRepository provides persistence for weekly availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = "id, tutor_id, weekday, start_time, end_time, created_at, updated_at"

// ListByTutor returns every window for a tutor ordered by weekday and start.
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE tutor_id = $1 ORDER BY weekday ASC, start_time ASC", availabilityColumns)
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, tutorID); err != nil {
		return nil, fmt.Errorf("list availability by tutor: %w", err)
	}
	return windows, nil
}

// ListByTutorAndWeekday returns a tutor's windows for one weekday. The
// weekday key is the canonical enum shared with the write path.
func (r *AvailabilityRepository) ListByTutorAndWeekday(ctx context.Context, tutorID string, weekday models.Weekday) ([]models.AvailabilityWindow, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE tutor_id = $1 AND weekday = $2 ORDER BY start_time ASC", availabilityColumns)
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, tutorID, weekday); err != nil {
		return nil, fmt.Errorf("list availability by tutor and weekday: %w", err)
	}
	return windows, nil
}

// FindByID loads a window by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE id = $1", availabilityColumns)
	var window models.AvailabilityWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// Create stores a new availability window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO tutor_availability (id, tutor_id, weekday, start_time, end_time, created_at, updated_at) VALUES (:id, :tutor_id, :weekday, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}
	return nil
}

// Delete removes a window by id.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tutor_availability WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	return nil
}
