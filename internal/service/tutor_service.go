package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

type tutorCRUDRepository interface {
	List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, int, error)
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	Create(ctx context.Context, tutor *models.Tutor) error
	Update(ctx context.Context, tutor *models.Tutor) error
	Deactivate(ctx context.Context, id string) error
}

// TutorService manages tutor records.
type TutorService struct {
	tutors    tutorCRUDRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorService constructs the service.
func NewTutorService(tutors tutorCRUDRepository, validate *validator.Validate, logger *zap.Logger) *TutorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{tutors: tutors, validator: validate, logger: logger}
}

// CreateTutorRequest describes a new tutor.
type CreateTutorRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	Subjects  *string `json:"subjects"`
}

// UpdateTutorRequest updates an existing tutor.
type UpdateTutorRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	Subjects  *string `json:"subjects"`
	Active    *bool   `json:"active"`
}

// List returns tutors matching the filter.
func (s *TutorService) List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	tutors, total, err := s.tutors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return tutors, pagination, nil
}

// Get returns one tutor.
func (s *TutorService) Get(ctx context.Context, id string) (*models.Tutor, error) {
	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return tutor, nil
}

// Create registers a new active tutor.
func (s *TutorService) Create(ctx context.Context, req CreateTutorRequest) (*models.Tutor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor payload")
	}
	tutor := &models.Tutor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Subjects:  req.Subjects,
		Active:    true,
	}
	if err := s.tutors.Create(ctx, tutor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tutor")
	}
	s.logger.Info("tutor created", zap.String("tutor_id", tutor.ID))
	return tutor, nil
}

// Update modifies a tutor record.
func (s *TutorService) Update(ctx context.Context, id string, req UpdateTutorRequest) (*models.Tutor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor payload")
	}
	tutor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tutor.FirstName = req.FirstName
	tutor.LastName = req.LastName
	tutor.Email = req.Email
	tutor.Phone = req.Phone
	tutor.Subjects = req.Subjects
	if req.Active != nil {
		tutor.Active = *req.Active
	}
	if err := s.tutors.Update(ctx, tutor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tutor")
	}
	return tutor, nil
}

// Deactivate marks a tutor inactive so the ranker stops suggesting them.
func (s *TutorService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.tutors.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate tutor")
	}
	s.logger.Info("tutor deactivated", zap.String("tutor_id", id))
	return nil
}
