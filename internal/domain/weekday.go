package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "dimanche": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "lundi": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "mardi": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "mercredi": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "jeudi": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "vendredi": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "samedi": time.Saturday,
}

// ParseWeekday accepts English names and abbreviations in any case, or 0-6
// with 0 = Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
