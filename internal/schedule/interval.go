// Package schedule holds the pure interval predicates behind conflict
// detection. Nothing in here touches the database or the clock; every
// function is a total function of its arguments.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts an "HH:MM" clock string to minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as an "HH:MM" string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinutesOfDay returns the wall-clock minutes since midnight for a timestamp.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FitsWithinWindow reports whether the event range lies entirely inside the
// window, boundary-inclusive on both ends. All four values are minutes since
// midnight. This is containment, not overlap: an event that only partially
// overlaps the window does not fit.
func FitsWithinWindow(eventStart, eventEnd, windowStart, windowEnd int) bool {
	return eventStart >= windowStart && eventEnd <= windowEnd
}

// WindowContains is the time.Time convenience form of FitsWithinWindow. The
// window boundaries are HH:MM clock strings.
func WindowContains(eventStart, eventEnd time.Time, windowStart, windowEnd string) (bool, error) {
	ws, err := ParseClock(windowStart)
	if err != nil {
		return false, err
	}
	we, err := ParseClock(windowEnd)
	if err != nil {
		return false, err
	}
	return FitsWithinWindow(MinutesOfDay(eventStart), MinutesOfDay(eventEnd), ws, we), nil
}

// OverlapsHalfOpen reports whether two absolute time ranges intersect under
// half-open semantics: touching endpoints do not conflict. This is the rule
// for lesson-vs-lesson collisions.
func OverlapsHalfOpen(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DateSpansIntersect reports whether two date-granularity spans intersect
// with inclusive boundaries on both ends. This is the rule for time-off
// windows and is deliberately a separate predicate from OverlapsHalfOpen:
// merging the two would silently change conflict behavior at boundaries.
func DateSpansIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	as, ae := dateOnly(aStart), dateOnly(aEnd)
	bs, be := dateOnly(bStart), dateOnly(bEnd)
	return !as.After(be) && !bs.After(ae)
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
