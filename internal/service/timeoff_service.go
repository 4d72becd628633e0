package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/videoroom"
)

type timeOffRepository interface {
	List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.TimeOffRequest, error)
	Create(ctx context.Context, request *models.TimeOffRequest) error
	UpdateStatus(ctx context.Context, id string, status models.TimeOffStatus) error
	Delete(ctx context.Context, id string) error
}

type impactLessonRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	FindScheduledInSpan(ctx context.Context, tutorID string, startDate, endDate time.Time) ([]models.Lesson, error)
	ListStudentIDs(ctx context.Context, lessonID string) ([]string, error)
	UpdateTutor(ctx context.Context, lessonID, tutorID string) error
	UpdateStatus(ctx context.Context, lessonID string, status models.LessonStatus) error
}

type impactTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

// TimeOffService manages time-off requests and resolves the lessons an
// approved window invalidates.
type TimeOffService struct {
	requests  timeOffRepository
	lessons   impactLessonRepository
	tutors    impactTutorRepository
	rooms     videoroom.Recreator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeOffService constructs the service.
func NewTimeOffService(requests timeOffRepository, lessons impactLessonRepository, tutors impactTutorRepository, rooms videoroom.Recreator, validate *validator.Validate, logger *zap.Logger) *TimeOffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeOffService{
		requests:  requests,
		lessons:   lessons,
		tutors:    tutors,
		rooms:     rooms,
		validator: validate,
		logger:    logger,
	}
}

// CreateTimeOffRequest describes a new absence window.
type CreateTimeOffRequest struct {
	TutorID   string    `json:"tutor_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
}

// UpdateTimeOffStatusRequest transitions a pending request.
type UpdateTimeOffStatusRequest struct {
	Status models.TimeOffStatus `json:"status" validate:"required"`
}

// List returns time-off requests.
func (s *TimeOffService) List(ctx context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time off requests")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return requests, pagination, nil
}

// Create registers a pending request for a tutor.
func (s *TimeOffService) Create(ctx context.Context, req CreateTimeOffRequest) (*models.TimeOffRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time off payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	if _, err := s.tutors.FindByID(ctx, req.TutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	request := &models.TimeOffRequest{
		TutorID:   req.TutorID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		Status:    models.TimeOffStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time off request")
	}
	return request, nil
}

// UpdateStatus approves or rejects a request. Approval returns the scheduled
// lessons the window invalidates so an admin can resolve each one.
func (s *TimeOffService) UpdateStatus(ctx context.Context, id string, req UpdateTimeOffStatusRequest) (*models.TimeOffRequest, []models.TimeOffConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status != models.TimeOffStatusApproved && req.Status != models.TimeOffStatusRejected {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}

	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "time off request not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time off request")
	}
	if request.Status != models.TimeOffStatusPending {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "time off request already resolved")
	}

	if err := s.requests.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time off status")
	}
	request.Status = req.Status

	var conflicts []models.TimeOffConflict
	if req.Status == models.TimeOffStatusApproved {
		conflicts, err = s.FindImpactedLessons(ctx, request.TutorID, request.StartDate, request.EndDate)
		if err != nil {
			// The approval is committed; surface the lookup failure without
			// rolling it back.
			s.logger.Warn("impacted lesson lookup failed", zap.String("time_off_id", id), zap.Error(err))
		}
	}
	return request, conflicts, nil
}

// Delete removes a pending request. Only the requesting tutor may delete,
// and only while the request is pending.
func (s *TimeOffService) Delete(ctx context.Context, id, requesterTutorID string) error {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time off request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time off request")
	}
	if request.TutorID != requesterTutorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the requesting tutor may cancel a request")
	}
	if request.Status != models.TimeOffStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "only pending requests can be cancelled")
	}
	if err := s.requests.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time off request")
	}
	return nil
}

// FindImpactedLessons returns the tutor's scheduled lessons whose span
// intersects the inclusive [startDate, endDate] window: start within, end
// within, or fully spanning it.
func (s *TimeOffService) FindImpactedLessons(ctx context.Context, tutorID string, startDate, endDate time.Time) ([]models.TimeOffConflict, error) {
	lessons, err := s.lessons.FindScheduledInSpan(ctx, tutorID, startDate, endDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find impacted lessons")
	}

	conflicts := make([]models.TimeOffConflict, 0, len(lessons))
	for _, lesson := range lessons {
		studentIDs, err := s.lessons.ListStudentIDs(ctx, lesson.ID)
		if err != nil {
			s.logger.Warn("roster lookup failed", zap.String("lesson_id", lesson.ID), zap.Error(err))
		}
		conflicts = append(conflicts, models.TimeOffConflict{
			LessonID:   lesson.ID,
			Title:      lesson.Title,
			Subject:    lesson.Subject,
			StartTime:  lesson.StartTime,
			EndTime:    lesson.EndTime,
			StudentIDs: studentIDs,
		})
	}
	return conflicts, nil
}

// ReassignLesson moves a conflicting lesson to another tutor. When the tutor
// actually changes, the external video room is recreated best-effort: a
// provider failure is logged and surfaced as a warning, never rolled back.
func (s *TimeOffService) ReassignLesson(ctx context.Context, lessonID, newTutorID, reason, adminUserID string) error {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if _, err := s.tutors.FindByID(ctx, newTutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "replacement tutor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacement tutor")
	}

	tutorChanged := lesson.TutorID != newTutorID
	if tutorChanged {
		if err := s.lessons.UpdateTutor(ctx, lessonID, newTutorID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign lesson")
		}
	}

	s.logger.Info("lesson reassigned",
		zap.String("lesson_id", lessonID),
		zap.String("new_tutor_id", newTutorID),
		zap.String("admin_user_id", adminUserID),
		zap.String("reason", reason))

	if tutorChanged && s.rooms != nil {
		if err := s.rooms.RecreateRoom(ctx, lessonID, newTutorID); err != nil {
			s.logger.Warn("video room recreation failed", zap.String("lesson_id", lessonID), zap.Error(err))
		}
	}
	return nil
}

// CancelLesson cancels a conflicting lesson.
func (s *TimeOffService) CancelLesson(ctx context.Context, lessonID, reason, adminUserID string) error {
	if _, err := s.lessons.FindByID(ctx, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := s.lessons.UpdateStatus(ctx, lessonID, models.LessonStatusCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel lesson")
	}
	s.logger.Info("lesson cancelled",
		zap.String("lesson_id", lessonID),
		zap.String("admin_user_id", adminUserID),
		zap.String("reason", reason))
	return nil
}

// ResolveAll applies a batch of admin resolutions. Entries are independent:
// one failure does not abort the rest. The reschedule action is declared but
// intentionally unimplemented; applying it yields a not-implemented outcome
// rather than invented scheduling semantics.
func (s *TimeOffService) ResolveAll(ctx context.Context, resolutions []models.ConflictResolution, adminUserID string) ([]models.ResolutionOutcome, error) {
	if len(resolutions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no resolutions provided")
	}

	outcomes := make([]models.ResolutionOutcome, 0, len(resolutions))
	for _, res := range resolutions {
		outcome := models.ResolutionOutcome{LessonID: res.LessonID, Action: res.Action}

		switch res.Action {
		case models.ResolutionReassign:
			if res.NewTutorID == nil || *res.NewTutorID == "" {
				outcome.Message = "new_tutor_id is required for reassign"
			} else if err := s.ReassignLesson(ctx, res.LessonID, *res.NewTutorID, res.Reason, adminUserID); err != nil {
				outcome.Message = err.Error()
			} else {
				outcome.Applied = true
			}
		case models.ResolutionCancel:
			if err := s.CancelLesson(ctx, res.LessonID, res.Reason, adminUserID); err != nil {
				outcome.Message = err.Error()
			} else {
				outcome.Applied = true
			}
		case models.ResolutionReschedule:
			s.logger.Info("reschedule resolution requested but not implemented", zap.String("lesson_id", res.LessonID))
			outcome.Message = appErrors.ErrNotImplemented.Message
		default:
			outcome.Message = fmt.Sprintf("unknown resolution action %q", res.Action)
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
