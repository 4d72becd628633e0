package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorlane/tutorhub-api/internal/models"
)

type rosterRepoStub struct {
	batches    [][]string
	failBatch  int
	rosterSize map[string]int
}

func (s *rosterRepoStub) ListRosterByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.LessonRosterRow, error) {
	s.batches = append(s.batches, lessonIDs)
	if s.failBatch > 0 && len(s.batches) == s.failBatch {
		return nil, errors.New("query too long")
	}
	var rows []models.LessonRosterRow
	for _, id := range lessonIDs {
		size := s.rosterSize[id]
		for i := 0; i < size; i++ {
			rows = append(rows, models.LessonRosterRow{
				LessonID:    id,
				StudentID:   fmt.Sprintf("%s-s%d", id, i),
				StudentName: fmt.Sprintf("Student %d", i),
			})
		}
	}
	return rows, nil
}

type attendanceRepoStub struct {
	records map[string][]models.AttendanceRecord
}

func (s *attendanceRepoStub) ListByLessonIDs(ctx context.Context, lessonIDs []string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, id := range lessonIDs {
		out = append(out, s.records[id]...)
	}
	return out, nil
}

type homeworkRepoStub struct {
	withHomework map[string]bool
}

func (s *homeworkRepoStub) ExistingLessonIDs(ctx context.Context, lessonIDs []string) ([]string, error) {
	var out []string
	for _, id := range lessonIDs {
		if s.withHomework[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func attendanceRows(lessonID string, statuses ...models.AttendanceStatus) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, len(statuses))
	for i, status := range statuses {
		out = append(out, models.AttendanceRecord{
			LessonID:  lessonID,
			StudentID: fmt.Sprintf("%s-s%d", lessonID, i),
			Status:    status,
		})
	}
	return out
}

func TestCompletionFlagsPolicy(t *testing.T) {
	roster := &rosterRepoStub{rosterSize: map[string]int{"l1": 2, "l2": 2, "l3": 0}}
	attendance := &attendanceRepoStub{records: map[string][]models.AttendanceRecord{
		"l1": attendanceRows("l1", models.AttendanceStatusPresent, models.AttendanceStatusPresent),
		"l2": attendanceRows("l2", models.AttendanceStatusPresent),
	}}
	homework := &homeworkRepoStub{withHomework: map[string]bool{"l1": true, "l2": true, "l3": true}}
	svc := NewLessonStatusService(roster, attendance, homework, nil, nil, 50)

	flags, _, err := svc.CompletionFlags(context.Background(), []string{"l1", "l2", "l3"})
	require.NoError(t, err)
	require.True(t, flags["l1"], "full attendance plus homework completes the lesson")
	require.False(t, flags["l2"], "missing attendance record keeps the lesson incomplete")
	require.False(t, flags["l3"], "empty roster never completes")
}

func TestCompletionFlagsHomeworkRequired(t *testing.T) {
	roster := &rosterRepoStub{rosterSize: map[string]int{"l1": 2}}
	attendance := &attendanceRepoStub{records: map[string][]models.AttendanceRecord{
		"l1": attendanceRows("l1", models.AttendanceStatusPresent, models.AttendanceStatusPresent),
	}}
	homework := &homeworkRepoStub{withHomework: map[string]bool{}}
	svc := NewLessonStatusService(roster, attendance, homework, nil, nil, 50)

	flags, _, err := svc.CompletionFlags(context.Background(), []string{"l1"})
	require.NoError(t, err)
	require.False(t, flags["l1"], "attendance alone is not completion")

	homework.withHomework["l1"] = true
	flags, _, err = svc.CompletionFlags(context.Background(), []string{"l1"})
	require.NoError(t, err)
	require.True(t, flags["l1"])
}

func TestAttendanceFlagsDerivation(t *testing.T) {
	roster := &rosterRepoStub{rosterSize: map[string]int{"l1": 2, "l2": 2, "l3": 2}}
	attendance := &attendanceRepoStub{records: map[string][]models.AttendanceRecord{
		"l1": attendanceRows("l1", models.AttendanceStatusExcused, models.AttendanceStatusExcused),
		"l2": attendanceRows("l2", models.AttendanceStatusAbsent, models.AttendanceStatusAbsent),
		"l3": attendanceRows("l3", models.AttendanceStatusPresent, models.AttendanceStatusAbsent),
	}}
	svc := NewLessonStatusService(roster, attendance, &homeworkRepoStub{}, nil, nil, 50)

	flags, _, err := svc.AttendanceFlags(context.Background(), []string{"l1", "l2", "l3"})
	require.NoError(t, err)
	require.True(t, flags["l1"].IsCancelled, "all excused cancels the lesson")
	require.False(t, flags["l1"].IsAbsent)
	require.True(t, flags["l2"].IsAbsent, "all absent marks the lesson absent")
	require.False(t, flags["l2"].IsCancelled)
	require.False(t, flags["l3"].IsCancelled)
	require.False(t, flags["l3"].IsAbsent)
}

func TestAttendanceFlagsBatchPartitioning(t *testing.T) {
	ids := make([]string, 0, 120)
	rosterSize := make(map[string]int, 120)
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("lesson-%03d", i)
		ids = append(ids, id)
		rosterSize[id] = 1
	}
	roster := &rosterRepoStub{rosterSize: rosterSize}
	svc := NewLessonStatusService(roster, &attendanceRepoStub{}, &homeworkRepoStub{}, nil, nil, 50)

	flags, _, err := svc.AttendanceFlags(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, roster.batches, 3)
	require.Len(t, roster.batches[0], 50)
	require.Len(t, roster.batches[1], 50)
	require.Len(t, roster.batches[2], 20)
	require.Len(t, flags, 120)
}

func TestAttendanceFlagsFailedBatchIsSkipped(t *testing.T) {
	ids := make([]string, 0, 120)
	rosterSize := make(map[string]int, 120)
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("lesson-%03d", i)
		ids = append(ids, id)
		rosterSize[id] = 1
	}
	roster := &rosterRepoStub{rosterSize: rosterSize, failBatch: 2}
	svc := NewLessonStatusService(roster, &attendanceRepoStub{}, &homeworkRepoStub{}, nil, nil, 50)

	flags, _, err := svc.AttendanceFlags(context.Background(), ids)
	require.NoError(t, err, "one failing batch must not abort the rest")
	require.Len(t, roster.batches, 3)
	require.Len(t, flags, 70)
	for _, id := range roster.batches[1] {
		_, ok := flags[id]
		require.False(t, ok, "ids from the failed batch must be absent, not zeroed")
	}
	for _, id := range roster.batches[0] {
		_, ok := flags[id]
		require.True(t, ok)
	}
}

func TestStatusCacheKeyNormalization(t *testing.T) {
	roster := &rosterRepoStub{rosterSize: map[string]int{}}
	svc := NewLessonStatusService(roster, &attendanceRepoStub{}, &homeworkRepoStub{}, nil, nil, 50)

	_, key, err := svc.AttendanceFlags(context.Background(), []string{"b", "", "a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, "a|b|c", key)

	// Same effective set, same key.
	_, key2, err := svc.AttendanceFlags(context.Background(), []string{"c", "b", "a", "a"})
	require.NoError(t, err)
	require.Equal(t, key, key2)

	_, empty, err := svc.AttendanceFlags(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "", empty)
}
