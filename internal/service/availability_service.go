package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/schedule"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
)

type availabilityWindowRepository interface {
	ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error)
	ListByTutorAndWeekday(ctx context.Context, tutorID string, weekday models.Weekday) ([]models.AvailabilityWindow, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, id string) error
}

type conflictLessonRepository interface {
	FindOverlapping(ctx context.Context, tutorID string, start, end time.Time, excludeLessonID string) ([]models.Lesson, error)
	FindStudentOverlapping(ctx context.Context, studentIDs []string, start, end time.Time, excludeLessonID string) ([]models.StudentLessonHit, error)
}

type conflictTimeOffRepository interface {
	FindApprovedInRange(ctx context.Context, tutorID string, start, end time.Time) ([]models.TimeOffRequest, error)
}

type tutorDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	ListActive(ctx context.Context) ([]models.Tutor, error)
}

// AvailabilityService owns conflict detection for booking requests: weekly
// window containment, lesson overlap, approved time off, and student double
// booking, plus the alternative-tutor scan.
type AvailabilityService struct {
	windows         availabilityWindowRepository
	lessons         conflictLessonRepository
	timeOff         conflictTimeOffRepository
	tutors          tutorDirectory
	metrics         *MetricsService
	validator       *validator.Validate
	logger          *zap.Logger
	maxAlternatives int
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(windows availabilityWindowRepository, lessons conflictLessonRepository, timeOff conflictTimeOffRepository, tutors tutorDirectory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, maxAlternatives int) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		windows:         windows,
		lessons:         lessons,
		timeOff:         timeOff,
		tutors:          tutors,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		maxAlternatives: maxAlternatives,
	}
}

// AvailabilityCheckRequest describes one booking attempt to validate.
type AvailabilityCheckRequest struct {
	TutorID         string    `json:"tutor_id" validate:"required"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	StudentIDs      []string  `json:"student_ids"`
	ExcludeLessonID string    `json:"exclude_lesson_id"`
}

// CheckTutorAvailability verifies the requested range is contained in one of
// the tutor's weekly windows for that weekday. A query failure degrades to a
// synthetic conflict; it must never read as "available".
func (s *AvailabilityService) CheckTutorAvailability(ctx context.Context, tutorID string, start, end time.Time) []models.Conflict {
	weekday := models.WeekdayOf(start)

	windows, err := s.windows.ListByTutorAndWeekday(ctx, tutorID, weekday)
	if err != nil {
		s.logger.Warn("availability lookup failed", zap.String("tutor_id", tutorID), zap.Error(err))
		return []models.Conflict{{
			Type:    models.ConflictTutorAvailability,
			Message: "error checking tutor availability",
			Detail:  map[string]interface{}{"error": err.Error()},
		}}
	}

	if len(windows) == 0 {
		return []models.Conflict{{
			Type:    models.ConflictTutorAvailability,
			Message: fmt.Sprintf("Tutor is not available on %s", weekday),
			Detail:  map[string]interface{}{"weekday": string(weekday)},
		}}
	}

	slots := make([]string, 0, len(windows))
	for _, w := range windows {
		fits, err := schedule.WindowContains(start, end, w.StartTime, w.EndTime)
		if err != nil {
			s.logger.Warn("malformed availability window", zap.String("window_id", w.ID), zap.Error(err))
			continue
		}
		if fits {
			return nil
		}
		slots = append(slots, w.StartTime+"-"+w.EndTime)
	}

	return []models.Conflict{{
		Type:    models.ConflictTutorAvailability,
		Message: fmt.Sprintf("Requested time is outside the tutor's %s availability (available: %s)", weekday, strings.Join(slots, ", ")),
		Detail: map[string]interface{}{
			"weekday":         string(weekday),
			"available_slots": slots,
		},
	}}
}

// CheckLessonConflicts finds the tutor's other active lessons colliding with
// the requested range under half-open semantics.
func (s *AvailabilityService) CheckLessonConflicts(ctx context.Context, tutorID string, start, end time.Time, excludeLessonID string) []models.Conflict {
	lessons, err := s.lessons.FindOverlapping(ctx, tutorID, start, end, excludeLessonID)
	if err != nil {
		s.logger.Warn("lesson overlap lookup failed", zap.String("tutor_id", tutorID), zap.Error(err))
		return []models.Conflict{{
			Type:    models.ConflictLesson,
			Message: "error checking lesson conflicts",
			Detail:  map[string]interface{}{"error": err.Error()},
		}}
	}

	conflicts := make([]models.Conflict, 0, len(lessons))
	for _, lesson := range lessons {
		conflicts = append(conflicts, models.Conflict{
			Type:    models.ConflictLesson,
			Message: fmt.Sprintf("Overlaps with %q (%s)", lesson.Title, formatTimeRange(lesson.StartTime, lesson.EndTime)),
			Detail: map[string]interface{}{
				"lesson_id":  lesson.ID,
				"title":      lesson.Title,
				"start_time": lesson.StartTime,
				"end_time":   lesson.EndTime,
			},
		})
	}
	return conflicts
}

// CheckTimeOffConflicts finds approved time-off windows intersecting the
// requested range. Boundaries are inclusive here, unlike the lesson rule.
func (s *AvailabilityService) CheckTimeOffConflicts(ctx context.Context, tutorID string, start, end time.Time) []models.Conflict {
	requests, err := s.timeOff.FindApprovedInRange(ctx, tutorID, start, end)
	if err != nil {
		s.logger.Warn("time off lookup failed", zap.String("tutor_id", tutorID), zap.Error(err))
		return []models.Conflict{{
			Type:    models.ConflictTimeOff,
			Message: "error checking time off",
			Detail:  map[string]interface{}{"error": err.Error()},
		}}
	}

	conflicts := make([]models.Conflict, 0, len(requests))
	for _, req := range requests {
		if !schedule.DateSpansIntersect(req.StartDate, req.EndDate, start, end) {
			continue
		}
		conflicts = append(conflicts, models.Conflict{
			Type:    models.ConflictTimeOff,
			Message: fmt.Sprintf("Tutor has approved time off (%s) from %s to %s", req.Reason, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02")),
			Detail: map[string]interface{}{
				"time_off_id": req.ID,
				"start_date":  req.StartDate.Format("2006-01-02"),
				"end_date":    req.EndDate.Format("2006-01-02"),
				"reason":      req.Reason,
			},
		})
	}
	return conflicts
}

// CheckStudentConflicts finds other active lessons in the range that already
// include any of the given students.
func (s *AvailabilityService) CheckStudentConflicts(ctx context.Context, studentIDs []string, start, end time.Time, excludeLessonID string) []models.Conflict {
	if len(studentIDs) == 0 {
		return nil
	}

	hits, err := s.lessons.FindStudentOverlapping(ctx, studentIDs, start, end, excludeLessonID)
	if err != nil {
		s.logger.Warn("student overlap lookup failed", zap.Error(err))
		return []models.Conflict{{
			Type:    models.ConflictStudent,
			Message: "error checking student conflicts",
			Detail:  map[string]interface{}{"error": err.Error()},
		}}
	}

	// One entry per colliding lesson, naming the specific students affected.
	byLesson := make(map[string][]models.StudentLessonHit)
	var order []string
	for _, hit := range hits {
		if _, seen := byLesson[hit.LessonID]; !seen {
			order = append(order, hit.LessonID)
		}
		byLesson[hit.LessonID] = append(byLesson[hit.LessonID], hit)
	}

	conflicts := make([]models.Conflict, 0, len(order))
	for _, lessonID := range order {
		group := byLesson[lessonID]
		names := make([]string, 0, len(group))
		ids := make([]string, 0, len(group))
		for _, hit := range group {
			names = append(names, hit.StudentName)
			ids = append(ids, hit.StudentID)
		}
		conflicts = append(conflicts, models.Conflict{
			Type:    models.ConflictStudent,
			Message: fmt.Sprintf("%s already booked in %q (%s)", strings.Join(names, ", "), group[0].LessonTitle, formatTimeRange(group[0].StartTime, group[0].EndTime)),
			Detail: map[string]interface{}{
				"lesson_id":   lessonID,
				"student_ids": ids,
			},
		})
	}
	return conflicts
}

// PerformFullCheck runs the four sub-checks concurrently, merges their
// results in display order, derives suggestions, and scans for alternative
// tutors when a tutor-specific conflict is present.
func (s *AvailabilityService) PerformFullCheck(ctx context.Context, req AvailabilityCheckRequest) (*models.AvailabilityCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability check payload")
	}

	var (
		wg                  sync.WaitGroup
		availabilityEntries []models.Conflict
		lessonEntries       []models.Conflict
		timeOffEntries      []models.Conflict
		studentEntries      []models.Conflict
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		availabilityEntries = s.CheckTutorAvailability(ctx, req.TutorID, req.StartTime, req.EndTime)
	}()
	go func() {
		defer wg.Done()
		lessonEntries = s.CheckLessonConflicts(ctx, req.TutorID, req.StartTime, req.EndTime, req.ExcludeLessonID)
	}()
	go func() {
		defer wg.Done()
		timeOffEntries = s.CheckTimeOffConflicts(ctx, req.TutorID, req.StartTime, req.EndTime)
	}()
	go func() {
		defer wg.Done()
		studentEntries = s.CheckStudentConflicts(ctx, req.StudentIDs, req.StartTime, req.EndTime, req.ExcludeLessonID)
	}()
	wg.Wait()

	conflicts := make([]models.Conflict, 0, len(availabilityEntries)+len(lessonEntries)+len(timeOffEntries)+len(studentEntries))
	conflicts = append(conflicts, availabilityEntries...)
	conflicts = append(conflicts, lessonEntries...)
	conflicts = append(conflicts, timeOffEntries...)
	conflicts = append(conflicts, studentEntries...)

	for _, conflict := range conflicts {
		s.metrics.RecordConflict(conflict.Type)
	}

	result := &models.AvailabilityCheckResult{
		IsAvailable: len(conflicts) == 0,
		Conflicts:   conflicts,
		Suggestions: suggestionsFor(conflicts),
	}

	// A student double-booking cannot be fixed by changing tutor, so only
	// tutor-specific conflicts trigger the alternative scan.
	if len(availabilityEntries)+len(lessonEntries)+len(timeOffEntries) > 0 {
		alternatives, err := s.FindAlternativeTutors(ctx, req.TutorID, req.StartTime, req.EndTime, req.StudentIDs)
		if err != nil {
			s.logger.Warn("alternative tutor scan failed", zap.Error(err))
		} else {
			result.AlternativeTutors = alternatives
			result.HasAlternatives = len(alternatives) > 0
		}
	}

	return result, nil
}

// FindAlternativeTutors scans other active tutors for the requested range.
// Candidates whose weekly windows cannot contain the range are skipped;
// the rest are checked for lesson/time-off/student conflicts and sorted
// conflict-free first, then by "first last" name. The two-level sort is
// stable and deterministic for identical inputs.
func (s *AvailabilityService) FindAlternativeTutors(ctx context.Context, originalTutorID string, start, end time.Time, studentIDs []string) ([]models.AlternativeTutorCandidate, error) {
	tutors, err := s.tutors.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active tutors")
	}

	weekday := models.WeekdayOf(start)
	candidates := make([]models.AlternativeTutorCandidate, 0, len(tutors))

	for _, tutor := range tutors {
		if tutor.ID == originalTutorID {
			continue
		}

		windows, err := s.windows.ListByTutorAndWeekday(ctx, tutor.ID, weekday)
		if err != nil {
			// Cannot prove availability; do not offer the tutor.
			s.logger.Warn("candidate availability lookup failed", zap.String("tutor_id", tutor.ID), zap.Error(err))
			continue
		}

		var slots []string
		for _, w := range windows {
			fits, err := schedule.WindowContains(start, end, w.StartTime, w.EndTime)
			if err != nil {
				s.logger.Warn("malformed availability window", zap.String("window_id", w.ID), zap.Error(err))
				continue
			}
			if fits {
				slots = append(slots, w.StartTime+"-"+w.EndTime)
			}
		}
		if len(slots) == 0 {
			continue
		}

		// The availability check is already proven; only the remaining
		// sub-checks decide the conflict flag.
		hasConflict := len(s.CheckLessonConflicts(ctx, tutor.ID, start, end, "")) > 0 ||
			len(s.CheckTimeOffConflicts(ctx, tutor.ID, start, end)) > 0 ||
			len(s.CheckStudentConflicts(ctx, studentIDs, start, end, "")) > 0

		candidates = append(candidates, models.AlternativeTutorCandidate{
			TutorID:        tutor.ID,
			FullName:       tutor.FullName(),
			AvailableSlots: slots,
			HasConflict:    hasConflict,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HasConflict != candidates[j].HasConflict {
			return !candidates[i].HasConflict
		}
		return candidates[i].FullName < candidates[j].FullName
	})

	if s.maxAlternatives > 0 && len(candidates) > s.maxAlternatives {
		candidates = candidates[:s.maxAlternatives]
	}
	return candidates, nil
}

// suggestionsFor maps conflict-type presence to canned remediation strings.
func suggestionsFor(conflicts []models.Conflict) []string {
	present := make(map[models.ConflictType]bool, len(conflicts))
	for _, c := range conflicts {
		present[c.Type] = true
	}

	var suggestions []string
	if present[models.ConflictTutorAvailability] {
		suggestions = append(suggestions, "Choose a time inside the tutor's weekly availability or update their availability windows.")
	}
	if present[models.ConflictLesson] {
		suggestions = append(suggestions, "Pick a different time slot or assign the lesson to another tutor.")
	}
	if present[models.ConflictTimeOff] {
		suggestions = append(suggestions, "Schedule outside the tutor's approved time off or choose an alternative tutor.")
	}
	if present[models.ConflictStudent] {
		suggestions = append(suggestions, "Adjust the time so the enrolled students are not double-booked.")
	}
	return suggestions
}

func formatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("2006-01-02 15:04"), end.Format("15:04"))
}
