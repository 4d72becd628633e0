package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		clock   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"-1:00", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.clock)
		if tc.wantErr {
			assert.Error(t, err, tc.clock)
			continue
		}
		require.NoError(t, err, tc.clock)
		assert.Equal(t, tc.minutes, got, tc.clock)
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:00", "09:05", "12:30", "23:59"} {
		minutes, err := ParseClock(clock)
		require.NoError(t, err)
		assert.Equal(t, clock, FormatClock(minutes))
	}
}

func TestFitsWithinWindowBoundaryInclusive(t *testing.T) {
	window := func(s, e string) (int, int) {
		ws, err := ParseClock(s)
		require.NoError(t, err)
		we, err := ParseClock(e)
		require.NoError(t, err)
		return ws, we
	}
	ws, we := window("09:00", "17:00")

	cases := []struct {
		name       string
		start, end string
		fits       bool
	}{
		{"strictly inside", "10:00", "11:00", true},
		{"exact match", "09:00", "17:00", true},
		{"touches start boundary", "09:00", "09:30", true},
		{"touches end boundary", "16:30", "17:00", true},
		{"starts before window", "08:00", "09:30", false},
		{"ends after window", "16:30", "17:30", false},
		{"fully outside", "07:00", "08:00", false},
		{"spans whole window and more", "08:00", "18:00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			es, err := ParseClock(tc.start)
			require.NoError(t, err)
			ee, err := ParseClock(tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.fits, FitsWithinWindow(es, ee, ws, we))
		})
	}
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 1, 11, 0, 0, 0, time.UTC)

	ok, err := WindowContains(start, end, "09:00", "17:00")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WindowContains(start, end, "10:30", "17:00")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = WindowContains(start, end, "bogus", "17:00")
	assert.Error(t, err)
}

func TestOverlapsHalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 12, 2, h, 0, 0, 0, time.UTC) }

	// Tuesday 10:00-11:00 vs 10:30-11:30 collides.
	assert.True(t, OverlapsHalfOpen(at(10), at(11), at(10).Add(30*time.Minute), at(11).Add(30*time.Minute)))
	// Touching boundary does not conflict.
	assert.False(t, OverlapsHalfOpen(at(10), at(11), at(11), at(12)))
	assert.False(t, OverlapsHalfOpen(at(11), at(12), at(10), at(11)))
	// Disjoint.
	assert.False(t, OverlapsHalfOpen(at(8), at(9), at(10), at(11)))
	// Containment.
	assert.True(t, OverlapsHalfOpen(at(9), at(12), at(10), at(11)))
}

func TestOverlapsHalfOpenSymmetry(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	spans := [][2]time.Time{
		{base.Add(1 * time.Hour), base.Add(2 * time.Hour)},
		{base.Add(90 * time.Minute), base.Add(3 * time.Hour)},
		{base.Add(2 * time.Hour), base.Add(4 * time.Hour)},
		{base.Add(5 * time.Hour), base.Add(6 * time.Hour)},
	}
	for _, a := range spans {
		for _, b := range spans {
			assert.Equal(t,
				OverlapsHalfOpen(a[0], a[1], b[0], b[1]),
				OverlapsHalfOpen(b[0], b[1], a[0], a[1]),
				"overlap must be symmetric")
		}
		// A non-degenerate range overlaps itself.
		assert.True(t, OverlapsHalfOpen(a[0], a[1], a[0], a[1]))
	}
}

func TestDateSpansIntersectInclusiveBoundaries(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC) }

	// Time off Dec 20-22 vs a lesson on Dec 22 intersects: boundaries are
	// inclusive here even though the equivalent lesson-overlap check at the
	// exact boundary would not conflict under half-open semantics.
	lessonStart := time.Date(2025, 12, 22, 9, 0, 0, 0, time.UTC)
	lessonEnd := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	assert.True(t, DateSpansIntersect(day(20), day(22), lessonStart, lessonEnd))

	// Same boundary under the half-open lesson rule: no conflict. The two
	// policies must stay independently observable.
	assert.False(t, OverlapsHalfOpen(day(20), day(22), day(22), day(23)))

	assert.True(t, DateSpansIntersect(day(20), day(22), day(22), day(25)))
	assert.True(t, DateSpansIntersect(day(20), day(22), day(19), day(20)))
	assert.False(t, DateSpansIntersect(day(20), day(22), day(23), day(25)))
	assert.False(t, DateSpansIntersect(day(23), day(25), day(20), day(22)))
	// Lesson fully spanning the window.
	assert.True(t, DateSpansIntersect(day(21), day(21), day(19), day(25)))
}

func TestDateSpansIntersectIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2025, 12, 20, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 12, 20, 0, 1, 0, 0, time.UTC)
	assert.True(t, DateSpansIntersect(a, a, b, b))
}
