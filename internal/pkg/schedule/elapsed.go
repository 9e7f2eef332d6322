package schedule

import (
	"time"

	"venuebook/internal/domain"
)

// Elapsed reports whether a slot on date has already ended at now. Dates are
// compared in now's location. A slot ending at midnight, or running past it,
// is still ongoing for the whole of its day.
func Elapsed(date time.Time, start, end domain.Clock, now time.Time) bool {
	day := domain.DateOf(date)
	today := domain.DateOf(now)
	switch {
	case day.Before(today):
		return true
	case day.After(today):
		return false
	}
	if end.IsMidnight() || end < start {
		return false
	}
	return end <= domain.ClockOf(now)
}
