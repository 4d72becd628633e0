package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/schedule"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

// CreateWindowRequest describes a new weekly availability window.
type CreateWindowRequest struct {
	Weekday   models.Weekday `json:"weekday" validate:"required"`
	StartTime string         `json:"start_time" validate:"required"`
	EndTime   string         `json:"end_time" validate:"required"`
}

// ListWindows returns a tutor's weekly availability.
func (s *AvailabilityService) ListWindows(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	windows, err := s.windows.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability windows")
	}
	return windows, nil
}

// AddWindow validates and stores a new availability window for a tutor.
// The weekday must be a canonical enum value and start must precede end.
func (s *AvailabilityService) AddWindow(ctx context.Context, tutorID string, req CreateWindowRequest) (*models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window payload")
	}
	if !req.Weekday.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday")
	}

	startMin, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
	}
	endMin, err := schedule.ParseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
	}
	if startMin >= endMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	window := &models.AvailabilityWindow{
		TutorID:   tutorID,
		Weekday:   req.Weekday,
		StartTime: schedule.FormatClock(startMin),
		EndTime:   schedule.FormatClock(endMin),
	}
	if err := s.windows.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability window")
	}

	s.logger.Info("availability window created",
		zap.String("tutor_id", tutorID),
		zap.String("weekday", string(window.Weekday)),
		zap.String("slot", window.StartTime+"-"+window.EndTime))
	return window, nil
}

// RemoveWindow deletes one of the tutor's availability windows.
func (s *AvailabilityService) RemoveWindow(ctx context.Context, tutorID, windowID string) error {
	window, err := s.windows.FindByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability window")
	}
	if window.TutorID != tutorID {
		return appErrors.Clone(appErrors.ErrForbidden, "window does not belong to tutor")
	}
	if err := s.windows.Delete(ctx, windowID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability window")
	}
	return nil
}
