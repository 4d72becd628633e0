package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/export"
)

type exportLessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	ListRosterByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.LessonRosterRow, error)
}

type exportTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus HTTP metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders a tutor's schedule as downloadable CSV or PDF.
type ExportService struct {
	lessons exportLessonRepository
	tutors  exportTutorRepository
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
	enabled bool
}

// NewExportService constructs the service.
func NewExportService(lessons exportLessonRepository, tutors exportTutorRepository, logger *zap.Logger, enabled bool) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		lessons: lessons,
		tutors:  tutors,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		enabled: enabled,
	}
}

// TutorSchedule renders the tutor's lessons between from and to.
func (s *ExportService) TutorSchedule(ctx context.Context, tutorID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}

	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	lessons, _, err := s.lessons.List(ctx, models.LessonFilter{
		TutorID:   tutorID,
		From:      &from,
		To:        &to,
		Page:      1,
		PageSize:  1000,
		SortBy:    "start_time",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	dataset := s.buildDataset(ctx, lessons)
	title := fmt.Sprintf("Schedule %s (%s to %s)", tutor.FullName(), from.Format("2006-01-02"), to.Format("2006-01-02"))
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("schedule-%s-%s.pdf", tutorID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("schedule-%s-%s.csv", tutorID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func (s *ExportService) buildDataset(ctx context.Context, lessons []models.Lesson) export.Dataset {
	headers := []string{"Date", "Start", "End", "Title", "Subject", "Status", "Students"}

	rosterByLesson := map[string]string{}
	if len(lessons) > 0 {
		ids := make([]string, 0, len(lessons))
		for _, lesson := range lessons {
			ids = append(ids, lesson.ID)
		}
		rows, err := s.lessons.ListRosterByLessonIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("roster lookup failed for export", zap.Error(err))
		}
		for _, row := range rows {
			if existing := rosterByLesson[row.LessonID]; existing != "" {
				rosterByLesson[row.LessonID] = existing + ", " + row.StudentName
			} else {
				rosterByLesson[row.LessonID] = row.StudentName
			}
		}
	}

	rows := make([]map[string]string, 0, len(lessons))
	for _, lesson := range lessons {
		rows = append(rows, map[string]string{
			"Date":     lesson.StartTime.Format("2006-01-02"),
			"Start":    lesson.StartTime.Format("15:04"),
			"End":      lesson.EndTime.Format("15:04"),
			"Title":    lesson.Title,
			"Subject":  lesson.Subject,
			"Status":   string(lesson.Status),
			"Students": rosterByLesson[lesson.ID],
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
