package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

// AttendanceRepository provides persistence for lesson attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = "id, lesson_id, student_id, status, notes, created_at, updated_at"

// ListByLesson returns the attendance records for one lesson.
func (r *AttendanceRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM lesson_attendance WHERE lesson_id = $1 ORDER BY student_id ASC", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, lessonID); err != nil {
		return nil, fmt.Errorf("list attendance by lesson: %w", err)
	}
	return records, nil
}

// ListByLessonIDs returns attendance records for a batch of lessons.
func (r *AttendanceRepository) ListByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.AttendanceRecord, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM lesson_attendance WHERE lesson_id = ANY($1)", attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list attendance by lesson ids: %w", err)
	}
	return records, nil
}

// Upsert records attendance for a student in a lesson, replacing an earlier
// mark if one exists.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO lesson_attendance (id, lesson_id, student_id, status, notes, created_at, updated_at)
VALUES (:id, :lesson_id, :student_id, :status, :notes, :created_at, :updated_at)
ON CONFLICT (lesson_id, student_id) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}
