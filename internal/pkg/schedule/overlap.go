// Package schedule holds the pure time arithmetic shared by the booking and
// subscription managers: range overlap, opening-hours checks and weekly
// recurrence.
package schedule

import (
	"time"

	"venuebook/internal/domain"
)

const dayMinutes = 24 * 60

// span converts a clock range to minutes from the start of the day. An end at
// or before the start runs into the next day, so an end of 00:00 means the end
// of the day.
func span(start, end domain.Clock) (int, int) {
	s, e := int(start), int(end)
	if e <= s {
		e += dayMinutes
	}
	return s, e
}

// Overlaps reports whether two ranges on the same day conflict. Ranges that
// start at the same time always conflict.
func Overlaps(start1, end1, start2, end2 domain.Clock) bool {
	if start1 == start2 {
		return true
	}
	s1, e1 := span(start1, end1)
	s2, e2 := span(start2, end2)
	return s1 < e2 && e1 > s2
}

// Duration is the length of [start, end), running into the next day when end
// is not after start.
func Duration(start, end domain.Clock) time.Duration {
	s, e := span(start, end)
	return time.Duration(e-s) * time.Minute
}
