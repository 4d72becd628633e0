package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

// LessonRepository provides persistence for lessons and their rosters.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = "id, tutor_id, subject, title, start_time, end_time, status, lesson_type, created_at, updated_at"

// List returns lessons with optional filtering and pagination.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	base := "FROM lessons WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT lesson_id FROM lesson_students WHERE student_id = $%d)", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("lesson_type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_time": true,
		"subject":    true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_time"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", lessonColumns, base, sortBy, order, size, offset)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	return lessons, total, nil
}

// FindByID loads a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindOverlapping returns the tutor's other active lessons whose span
// overlaps the requested range under half-open semantics. Demo lessons and
// the lesson being edited are excluded.
func (r *LessonRepository) FindOverlapping(ctx context.Context, tutorID string, start, end time.Time, excludeLessonID string) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE tutor_id = $1 AND status IN ('scheduled', 'in_progress') AND lesson_type <> 'demo' AND start_time < $3 AND $2 < end_time`, lessonColumns)
	args := []interface{}{tutorID, start, end}
	if excludeLessonID != "" {
		query += " AND id <> $4"
		args = append(args, excludeLessonID)
	}
	query += " ORDER BY start_time ASC"

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping lessons: %w", err)
	}
	return lessons, nil
}

// FindStudentOverlapping returns roster hits for other active non-demo
// lessons overlapping the range that include any of the given students.
func (r *LessonRepository) FindStudentOverlapping(ctx context.Context, studentIDs []string, start, end time.Time, excludeLessonID string) ([]models.StudentLessonHit, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT l.id AS lesson_id, l.title AS lesson_title, l.start_time, l.end_time, s.id AS student_id, s.full_name AS student_name
FROM lessons l
JOIN lesson_students ls ON ls.lesson_id = l.id
JOIN students s ON s.id = ls.student_id
WHERE ls.student_id = ANY($1) AND l.status IN ('scheduled', 'in_progress') AND l.lesson_type <> 'demo' AND l.start_time < $3 AND $2 < l.end_time`
	args := []interface{}{pq.Array(studentIDs), start, end}
	if excludeLessonID != "" {
		query += " AND l.id <> $4"
		args = append(args, excludeLessonID)
	}
	query += " ORDER BY l.start_time ASC, s.full_name ASC"

	var hits []models.StudentLessonHit
	if err := r.db.SelectContext(ctx, &hits, query, args...); err != nil {
		return nil, fmt.Errorf("find student overlapping lessons: %w", err)
	}
	return hits, nil
}

// FindScheduledInSpan returns the tutor's scheduled lessons whose date span
// intersects the inclusive [startDate, endDate] window. Used by the time-off
// impact resolver; deliberately not the half-open lesson rule.
func (r *LessonRepository) FindScheduledInSpan(ctx context.Context, tutorID string, startDate, endDate time.Time) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE tutor_id = $1 AND status = 'scheduled' AND start_time::date <= $3::date AND end_time::date >= $2::date ORDER BY start_time ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, tutorID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("find scheduled lessons in span: %w", err)
	}
	return lessons, nil
}

// Create stores a new lesson and its roster within a transaction.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson, studentIDs []string) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertLesson = `INSERT INTO lessons (id, tutor_id, subject, title, start_time, end_time, status, lesson_type, created_at, updated_at) VALUES (:id, :tutor_id, :subject, :title, :start_time, :end_time, :status, :lesson_type, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertLesson, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	for _, studentID := range studentIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO lesson_students (lesson_id, student_id) VALUES ($1, $2)`, lesson.ID, studentID); err != nil {
			return fmt.Errorf("enroll student %s: %w", studentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create lesson: %w", err)
	}
	return nil
}

// Update modifies the lesson row.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET tutor_id = :tutor_id, subject = :subject, title = :title, start_time = :start_time, end_time = :end_time, status = :status, lesson_type = :lesson_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// UpdateTutor reassigns the lesson to a different tutor.
func (r *LessonRepository) UpdateTutor(ctx context.Context, lessonID, tutorID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE lessons SET tutor_id = $2, updated_at = $3 WHERE id = $1`, lessonID, tutorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reassign lesson tutor: %w", err)
	}
	return nil
}

// UpdateStatus transitions the lesson status.
func (r *LessonRepository) UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE lessons SET status = $2, updated_at = $3 WHERE id = $1`, lessonID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}
	return nil
}

// ListStudentIDs returns the enrolled student ids for a lesson.
func (r *LessonRepository) ListStudentIDs(ctx context.Context, lessonID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT student_id FROM lesson_students WHERE lesson_id = $1 ORDER BY student_id ASC`, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson student ids: %w", err)
	}
	return ids, nil
}

// ListRosterByLessonIDs returns roster rows for a batch of lessons.
func (r *LessonRepository) ListRosterByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.LessonRosterRow, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ls.lesson_id, ls.student_id, s.full_name AS student_name FROM lesson_students ls JOIN students s ON s.id = ls.student_id WHERE ls.lesson_id = ANY($1)`
	var rows []models.LessonRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list roster by lesson ids: %w", err)
	}
	return rows, nil
}
