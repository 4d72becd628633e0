package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

// TimeOffRepository provides persistence for time-off requests.
type TimeOffRepository struct {
	db *sqlx.DB
}

// NewTimeOffRepository creates a new time-off repository.
func NewTimeOffRepository(db *sqlx.DB) *TimeOffRepository {
	return &TimeOffRepository{db: db}
}

const timeOffColumns = "id, tutor_id, start_date, end_date, reason, status, created_at, updated_at"

// List returns time-off requests with optional filtering and pagination.
func (r *TimeOffRepository) List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, int, error) {
	base := "FROM time_off_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_date": true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", timeOffColumns, base, sortBy, order, size, offset)
	var requests []models.TimeOffRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time off requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count time off requests: %w", err)
	}

	return requests, total, nil
}

// FindByID loads a request by id.
func (r *TimeOffRepository) FindByID(ctx context.Context, id string) (*models.TimeOffRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM time_off_requests WHERE id = $1", timeOffColumns)
	var request models.TimeOffRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindApprovedInRange returns approved requests whose inclusive date span
// intersects the requested range.
func (r *TimeOffRepository) FindApprovedInRange(ctx context.Context, tutorID string, start, end time.Time) ([]models.TimeOffRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_off_requests WHERE tutor_id = $1 AND status = 'approved' AND start_date::date <= $3::date AND end_date::date >= $2::date ORDER BY start_date ASC`, timeOffColumns)
	var requests []models.TimeOffRequest
	if err := r.db.SelectContext(ctx, &requests, query, tutorID, start, end); err != nil {
		return nil, fmt.Errorf("find approved time off in range: %w", err)
	}
	return requests, nil
}

// Create stores a new request.
func (r *TimeOffRepository) Create(ctx context.Context, request *models.TimeOffRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO time_off_requests (id, tutor_id, start_date, end_date, reason, status, created_at, updated_at) VALUES (:id, :tutor_id, :start_date, :end_date, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create time off request: %w", err)
	}
	return nil
}

// UpdateStatus transitions a request.
func (r *TimeOffRepository) UpdateStatus(ctx context.Context, id string, status models.TimeOffStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE time_off_requests SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update time off status: %w", err)
	}
	return nil
}

// Delete removes a request by id. Callers enforce the pending/owner rule.
func (r *TimeOffRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_off_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time off request: %w", err)
	}
	return nil
}
