package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

type recordsLessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListStudentIDs(ctx context.Context, lessonID string) ([]string, error)
}

type recordsAttendanceRepository interface {
	ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
}

type recordsHomeworkRepository interface {
	ListByLesson(ctx context.Context, lessonID string) ([]models.Homework, error)
	Create(ctx context.Context, hw *models.Homework) error
}

// LessonRecordsService manages the per-lesson rows the status aggregator
// derives its flags from: attendance marks and homework items.
type LessonRecordsService struct {
	lessons    recordsLessonRepository
	attendance recordsAttendanceRepository
	homework   recordsHomeworkRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLessonRecordsService constructs the service.
func NewLessonRecordsService(lessons recordsLessonRepository, attendance recordsAttendanceRepository, homework recordsHomeworkRepository, validate *validator.Validate, logger *zap.Logger) *LessonRecordsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonRecordsService{
		lessons:    lessons,
		attendance: attendance,
		homework:   homework,
		validator:  validate,
		logger:     logger,
	}
}

// MarkAttendanceRequest records one student's attendance for a lesson.
type MarkAttendanceRequest struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Notes     *string                 `json:"notes"`
}

// CreateHomeworkRequest attaches a homework item to a lesson.
type CreateHomeworkRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
}

// ListAttendance returns the attendance rows for one lesson.
func (s *LessonRecordsService) ListAttendance(ctx context.Context, lessonID string) ([]models.AttendanceRecord, error) {
	if _, err := s.findLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	records, err := s.attendance.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// MarkAttendance upserts one student's attendance mark. The student must be
// enrolled in the lesson.
func (s *LessonRecordsService) MarkAttendance(ctx context.Context, lessonID string, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}
	if _, err := s.findLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	enrolled, err := s.lessons.ListStudentIDs(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson roster")
	}
	found := false
	for _, id := range enrolled {
		if id == req.StudentID {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this lesson")
	}

	record := &models.AttendanceRecord{
		LessonID:  lessonID,
		StudentID: req.StudentID,
		Status:    req.Status,
		Notes:     req.Notes,
	}
	if err := s.attendance.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance recorded",
		zap.String("lesson_id", lessonID),
		zap.String("student_id", req.StudentID),
		zap.String("status", string(req.Status)))
	return record, nil
}

// ListHomework returns the homework items for one lesson.
func (s *LessonRecordsService) ListHomework(ctx context.Context, lessonID string) ([]models.Homework, error) {
	if _, err := s.findLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	items, err := s.homework.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homework")
	}
	return items, nil
}

// AddHomework attaches a homework item to a lesson.
func (s *LessonRecordsService) AddHomework(ctx context.Context, lessonID string, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	if _, err := s.findLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	hw := &models.Homework{
		LessonID:    lessonID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	}
	if err := s.homework.Create(ctx, hw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	s.logger.Info("homework created",
		zap.String("lesson_id", lessonID),
		zap.String("homework_id", hw.ID))
	return hw, nil
}

func (s *LessonRecordsService) findLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}
