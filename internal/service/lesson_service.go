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

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson, studentIDs []string) error
	Update(ctx context.Context, lesson *models.Lesson) error
	UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error
	ListStudentIDs(ctx context.Context, lessonID string) ([]string, error)
}

// availabilityChecker is the slice of the availability service the lesson
// CRUD path needs.
type availabilityChecker interface {
	PerformFullCheck(ctx context.Context, req AvailabilityCheckRequest) (*models.AvailabilityCheckResult, error)
}

// LessonService manages lesson CRUD. Create and update run the full
// availability check first and refuse conflicting bookings unless the caller
// forces them through.
type LessonService struct {
	lessons   lessonRepository
	checker   availabilityChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs the service.
func NewLessonService(lessons lessonRepository, checker availabilityChecker, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{lessons: lessons, checker: checker, validator: validate, logger: logger}
}

// CreateLessonRequest describes a new booking.
type CreateLessonRequest struct {
	TutorID    string            `json:"tutor_id" validate:"required"`
	Subject    string            `json:"subject" validate:"required"`
	Title      string            `json:"title" validate:"required"`
	StartTime  time.Time         `json:"start_time" validate:"required"`
	EndTime    time.Time         `json:"end_time" validate:"required,gtfield=StartTime"`
	Type       models.LessonType `json:"lesson_type"`
	StudentIDs []string          `json:"student_ids"`
	Force      bool              `json:"force"`
}

// UpdateLessonRequest reschedules or retitles an existing lesson.
type UpdateLessonRequest struct {
	Subject   string    `json:"subject" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Force     bool      `json:"force"`
}

// List returns lessons matching the filter.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return lessons, pagination, nil
}

// Get returns one lesson with its enrolled student ids.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, []string, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	studentIDs, err := s.lessons.ListStudentIDs(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson roster")
	}
	return lesson, studentIDs, nil
}

// Create books a lesson. Unless forced, a conflicted request is rejected and
// the conflict report is returned alongside the error so the caller can show
// alternatives.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, *models.AvailabilityCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if req.Type == "" {
		req.Type = models.LessonTypeOrdinary
	}
	if !req.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown lesson type")
	}

	check, err := s.checker.PerformFullCheck(ctx, AvailabilityCheckRequest{
		TutorID:    req.TutorID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		StudentIDs: req.StudentIDs,
	})
	if err != nil {
		return nil, nil, err
	}
	if !check.IsAvailable && !req.Force {
		return nil, check, appErrors.Clone(appErrors.ErrScheduleConflict, "requested time conflicts with the tutor's schedule")
	}

	lesson := &models.Lesson{
		TutorID:   req.TutorID,
		Subject:   req.Subject,
		Title:     req.Title,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Status:    models.LessonStatusScheduled,
		Type:      req.Type,
	}
	if err := s.lessons.Create(ctx, lesson, req.StudentIDs); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID),
		zap.String("tutor_id", lesson.TutorID),
		zap.Bool("forced", req.Force && !check.IsAvailable))
	return lesson, check, nil
}

// Update reschedules a lesson, re-running the conflict check against the new
// time range with the lesson itself excluded.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*models.Lesson, *models.AvailabilityCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	studentIDs, err := s.lessons.ListStudentIDs(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson roster")
	}

	check, err := s.checker.PerformFullCheck(ctx, AvailabilityCheckRequest{
		TutorID:         lesson.TutorID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		StudentIDs:      studentIDs,
		ExcludeLessonID: id,
	})
	if err != nil {
		return nil, nil, err
	}
	if !check.IsAvailable && !req.Force {
		return nil, check, appErrors.Clone(appErrors.ErrScheduleConflict, "new time conflicts with the tutor's schedule")
	}

	lesson.Subject = req.Subject
	lesson.Title = req.Title
	lesson.StartTime = req.StartTime.UTC()
	lesson.EndTime = req.EndTime.UTC()
	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, check, nil
}

// UpdateStatus moves a lesson through its lifecycle.
func (s *LessonService) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown lesson status")
	}
	if _, err := s.lessons.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.lessons.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson status")
	}
	return nil
}
