package models

import "time"

// Weekday is the canonical day-of-week key shared by the availability write
// path and the conflict read path. Every producer and consumer must use this
// enumeration; no other weekday list may exist in the codebase.
type Weekday string

const (
	WeekdaySunday    Weekday = "sunday"
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
)

// Indexed by int(time.Weekday): 0 = Sunday.
var weekdayByIndex = [7]Weekday{
	WeekdaySunday,
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
	WeekdaySaturday,
}

// WeekdayOf derives the canonical weekday for a timestamp.
func WeekdayOf(t time.Time) Weekday {
	return weekdayByIndex[int(t.Weekday())]
}

// WeekdayFromIndex maps 0-6 (0 = Sunday) to the canonical weekday.
func WeekdayFromIndex(i int) (Weekday, bool) {
	if i < 0 || i > 6 {
		return "", false
	}
	return weekdayByIndex[i], true
}

// Valid reports whether the value is one of the seven canonical weekdays.
func (w Weekday) Valid() bool {
	for _, d := range weekdayByIndex {
		if w == d {
			return true
		}
	}
	return false
}

// AllWeekdays returns the weekdays in calendar order starting from Sunday.
func AllWeekdays() []Weekday {
	out := make([]Weekday, len(weekdayByIndex))
	copy(out, weekdayByIndex[:])
	return out
}
