package entity

import "time"

// StartOfDay truncates t to midnight UTC of its calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange is a half-open [Start, End) range of whole UTC days.
type DayRange struct {
	Start time.Time
	End   time.Time
}

// NewDayRange covers the calendar days from start through end inclusive.
// A nil end means the calendar day of now.
func NewDayRange(start time.Time, end *time.Time, now time.Time) DayRange {
	last := now
	if end != nil {
		last = *end
	}
	return DayRange{
		Start: StartOfDay(start),
		End:   StartOfDay(last).AddDate(0, 0, 1),
	}
}

// LastDay returns the final calendar day covered by the range.
func (r DayRange) LastDay() time.Time {
	return r.End.AddDate(0, 0, -1)
}

// Contains reports whether t falls inside the range.
func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
