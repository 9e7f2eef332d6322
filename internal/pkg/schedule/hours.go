package schedule

import "venuebook/internal/domain"

var lastStartBeforeMidnight = domain.NewClock(23, 0)

// ValidateRange rejects a range whose start is not before its end. An end of
// 00:00 is the end of the day and is always after the start.
func ValidateRange(start, end domain.Clock) error {
	if end.IsMidnight() {
		return nil
	}
	if start >= end {
		return &domain.RangeError{Start: start, End: end}
	}
	return nil
}

// ValidateHours checks that [start, end) fits the venue's opening hours.
//
// Venues closing after midnight (close < open) accept starts from opening time
// until closing time the next morning. Such a venue also accepts a slot that
// itself runs past midnight, provided it starts after opening and ends by
// closing time.
func ValidateHours(h domain.OpeningHours, start, end domain.Clock) error {
	overnight := !h.Close.IsMidnight() && h.Close < h.Open
	crossing := !end.IsMidnight() && end < start

	if !(overnight && crossing) {
		if err := ValidateRange(start, end); err != nil {
			return err
		}
	}

	outOfHours := func(reason string) error {
		return &domain.OutOfHoursError{Start: start, End: end, Open: h.Open, Close: h.Close, Reason: reason}
	}

	switch {
	case overnight:
		if crossing {
			if start < h.Open {
				return outOfHours("a slot running past midnight must start after opening time")
			}
			if end > h.Close {
				return outOfHours("end is after closing time")
			}
			return nil
		}
		if start >= h.Open {
			// Runs at most until midnight of the opening day.
			return nil
		}
		if start >= h.Close {
			return outOfHours("start is outside opening hours")
		}
		if end.IsMidnight() || end > h.Close {
			return outOfHours("end is after closing time")
		}
		return nil

	case h.Close.IsMidnight():
		if start < h.Open {
			return outOfHours("start is before opening time")
		}
		if start > lastStartBeforeMidnight {
			return outOfHours("start is after 23:00 for a venue closing at midnight")
		}
		if !end.IsMidnight() && end > lastStartBeforeMidnight {
			return outOfHours("end is after 23:00 for a venue closing at midnight")
		}
		return nil

	default:
		if start < h.Open {
			return outOfHours("start is before opening time")
		}
		if end.IsMidnight() || end > h.Close {
			return outOfHours("end is after closing time")
		}
		return nil
	}
}
