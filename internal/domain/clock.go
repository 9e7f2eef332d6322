package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Clock is a wall-clock time of day with minute precision, counted in minutes
// since 00:00. When used as the end of a range, Midnight means "end of day".
type Clock int

const (
	Midnight    Clock = 0
	minutesADay       = 24 * 60
)

// NewClock builds a Clock from hour and minute. Values outside a day wrap.
func NewClock(hour, minute int) Clock {
	return Clock(((hour*60+minute)%minutesADay + minutesADay) % minutesADay)
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock accepts "HH:MM" and "HH:MM:SS". Seconds are truncated.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClock(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) IsMidnight() bool { return c == Midnight }

// Add shifts the clock by d, wrapping around midnight.
func (c Clock) Add(d time.Duration) Clock {
	return NewClock(0, int(c)+int(d/time.Minute))
}

// On places the clock on the calendar day of date, in date's location.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the clock as "HH:MM:SS".
func (c Clock) Value() (driver.Value, error) {
	return c.String() + ":00", nil
}

func (c *Clock) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		*c = parsed
	case []byte:
		return c.Scan(string(v))
	case time.Time:
		*c = ClockOf(v)
	case int64:
		*c = NewClock(0, int(v))
	case nil:
		*c = Midnight
	default:
		return fmt.Errorf("cannot scan %T into Clock", src)
	}
	return nil
}

// DateOf truncates t to its calendar day, expressed as midnight UTC so dates
// compare and persist identically regardless of the caller's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO "2006-01-02" date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

const DateLayout = "2006-01-02"
