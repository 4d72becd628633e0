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

// HomeworkRepository provides persistence for lesson homework.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository creates a new homework repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

const homeworkColumns = "id, lesson_id, title, description, due_at, created_at, updated_at"

// ListByLesson returns homework attached to one lesson.
func (r *HomeworkRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.Homework, error) {
	query := fmt.Sprintf("SELECT %s FROM homework WHERE lesson_id = $1 ORDER BY created_at ASC", homeworkColumns)
	var homework []models.Homework
	if err := r.db.SelectContext(ctx, &homework, query, lessonID); err != nil {
		return nil, fmt.Errorf("list homework by lesson: %w", err)
	}
	return homework, nil
}

// ExistingLessonIDs returns the subset of the given lesson ids that have at
// least one homework row. Drives the completion policy.
func (r *HomeworkRepository) ExistingLessonIDs(ctx context.Context, lessonIDs []string) ([]string, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT lesson_id FROM homework WHERE lesson_id = ANY($1)`, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("homework existing lesson ids: %w", err)
	}
	return ids, nil
}

// Create stores a new homework row.
func (r *HomeworkRepository) Create(ctx context.Context, hw *models.Homework) error {
	if hw.ID == "" {
		hw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if hw.CreatedAt.IsZero() {
		hw.CreatedAt = now
	}
	hw.UpdatedAt = now

	const query = `INSERT INTO homework (id, lesson_id, title, description, due_at, created_at, updated_at) VALUES (:id, :lesson_id, :title, :description, :due_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hw); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}
