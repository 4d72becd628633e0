package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

type statusRosterRepository interface {
	ListRosterByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.LessonRosterRow, error)
}

type statusAttendanceRepository interface {
	ListByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.AttendanceRecord, error)
}

type statusHomeworkRepository interface {
	ExistingLessonIDs(ctx context.Context, lessonIDs []string) ([]string, error)
}

// LessonStatusService derives per-lesson status flags for large lesson sets.
// Lookups run in fixed-size ID batches so list views stay bounded regardless
// of page size.
type LessonStatusService struct {
	roster     statusRosterRepository
	attendance statusAttendanceRepository
	homework   statusHomeworkRepository
	metrics    *MetricsService
	logger     *zap.Logger
	batchSize  int
}

// NewLessonStatusService constructs the service. batchSize falls back to 50
// when not positive.
func NewLessonStatusService(roster statusRosterRepository, attendance statusAttendanceRepository, homework statusHomeworkRepository, metrics *MetricsService, logger *zap.Logger, batchSize int) *LessonStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &LessonStatusService{
		roster:     roster,
		attendance: attendance,
		homework:   homework,
		metrics:    metrics,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// lessonTally accumulates the counts completion and attendance flags derive
// from.
type lessonTally struct {
	studentCount    int
	attendanceCount int
	excusedCount    int
	absentCount     int
	homeworkExists  bool
}

// AttendanceFlags reports attendance-derived flags for the requested lessons.
// A batch whose lookups fail is logged and skipped: its lessons are absent
// from the result rather than reported with fabricated zero counts.
func (s *LessonStatusService) AttendanceFlags(ctx context.Context, lessonIDs []string) (map[string]models.LessonStatusFlags, string, error) {
	ids := normalizeIDs(lessonIDs)
	cacheKey := strings.Join(ids, "|")
	if len(ids) == 0 {
		return map[string]models.LessonStatusFlags{}, cacheKey, nil
	}

	tallies := make(map[string]*lessonTally, len(ids))
	for _, batch := range chunkIDs(ids, s.batchSize) {
		if err := s.tallyBatch(ctx, batch, tallies, false); err != nil {
			s.logger.Warn("attendance batch failed, skipping",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			s.metrics.RecordStatusBatch("failed")
			for _, id := range batch {
				delete(tallies, id)
			}
			continue
		}
		s.metrics.RecordStatusBatch("ok")
	}

	flags := make(map[string]models.LessonStatusFlags, len(tallies))
	for id, tally := range tallies {
		flags[id] = models.LessonStatusFlags{
			IsCancelled: models.IsCancelledByExcusal(models.AttendanceInput{
				StudentCount: tally.studentCount,
				ExcusedCount: tally.excusedCount,
				AbsentCount:  tally.absentCount,
			}),
			IsAbsent: models.IsFullyAbsent(models.AttendanceInput{
				StudentCount: tally.studentCount,
				ExcusedCount: tally.excusedCount,
				AbsentCount:  tally.absentCount,
			}),
		}
	}
	return flags, cacheKey, nil
}

// CompletionFlags reports whether each requested lesson meets the completion
// criteria: a non-empty roster, an attendance record per enrolled student,
// and at least one homework item. Batches run sequentially to bound data
// layer load; a failed batch is logged and skipped like the attendance path.
func (s *LessonStatusService) CompletionFlags(ctx context.Context, lessonIDs []string) (map[string]bool, string, error) {
	ids := normalizeIDs(lessonIDs)
	cacheKey := strings.Join(ids, "|")
	if len(ids) == 0 {
		return map[string]bool{}, cacheKey, nil
	}

	tallies := make(map[string]*lessonTally, len(ids))
	for _, batch := range chunkIDs(ids, s.batchSize) {
		if err := s.tallyBatch(ctx, batch, tallies, true); err != nil {
			s.logger.Warn("completion batch failed, skipping",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			s.metrics.RecordStatusBatch("failed")
			for _, id := range batch {
				delete(tallies, id)
			}
			continue
		}
		s.metrics.RecordStatusBatch("ok")
	}

	completed := make(map[string]bool, len(tallies))
	for id, tally := range tallies {
		completed[id] = models.IsLessonCompleted(models.CompletionInput{
			StudentCount:    tally.studentCount,
			AttendanceCount: tally.attendanceCount,
			HomeworkExists:  tally.homeworkExists,
		})
	}
	return completed, cacheKey, nil
}

// tallyBatch loads roster and attendance rows for one ID batch and folds them
// into tallies. When withHomework is set it also marks lessons that have at
// least one homework item.
func (s *LessonStatusService) tallyBatch(ctx context.Context, batch []string, tallies map[string]*lessonTally, withHomework bool) error {
	for _, id := range batch {
		if _, ok := tallies[id]; !ok {
			tallies[id] = &lessonTally{}
		}
	}

	rosterRows, err := s.roster.ListRosterByLessonIDs(ctx, batch)
	if err != nil {
		return err
	}
	for _, row := range rosterRows {
		if tally, ok := tallies[row.LessonID]; ok {
			tally.studentCount++
		}
	}

	records, err := s.attendance.ListByLessonIDs(ctx, batch)
	if err != nil {
		return err
	}
	for _, record := range records {
		tally, ok := tallies[record.LessonID]
		if !ok {
			continue
		}
		tally.attendanceCount++
		switch record.Status {
		case models.AttendanceStatusExcused:
			tally.excusedCount++
		case models.AttendanceStatusAbsent:
			tally.absentCount++
		}
	}

	if withHomework {
		withHW, err := s.homework.ExistingLessonIDs(ctx, batch)
		if err != nil {
			return err
		}
		for _, id := range withHW {
			if tally, ok := tallies[id]; ok {
				tally.homeworkExists = true
			}
		}
	}
	return nil
}

// normalizeIDs drops empty entries, deduplicates, and sorts so equal ID sets
// produce the same batches and the same cache key.
// CacheKey returns the canonical key for a set of lesson IDs: blanks
// dropped, duplicates removed, sorted, pipe-joined. The same set of IDs in
// any order yields the same key.
func (s *LessonStatusService) CacheKey(lessonIDs []string) string {
	return strings.Join(normalizeIDs(lessonIDs), "|")
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
