package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"venuebook/internal/domain"
)

// FirstOccurrence returns the earliest date on or after start falling on wd.
func FirstOccurrence(start time.Time, wd time.Weekday) time.Time {
	day := domain.DateOf(start)
	delta := (int(wd) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, delta)
}

// Occurrence returns the date of week index n (0-based) for weekday wd.
func Occurrence(start time.Time, wd time.Weekday, n int) time.Time {
	return FirstOccurrence(start, wd).AddDate(0, 0, 7*n)
}

// NumberOfWeeks is the count of whole weeks between start and end, at least one.
func NumberOfWeeks(start, end time.Time) int {
	days := int(domain.DateOf(end).Sub(domain.DateOf(start)).Hours() / 24)
	return max(1, days/7)
}

// Expander resolves occurrence dates for one request. The first occurrence of
// each weekday is computed once, so templates sharing a request keep their
// relative week offsets.
type Expander struct {
	start  time.Time
	firsts map[time.Weekday]time.Time
}

func NewExpander(start time.Time) *Expander {
	return &Expander{
		start:  domain.DateOf(start),
		firsts: make(map[time.Weekday]time.Time, 7),
	}
}

func (e *Expander) Start() time.Time { return e.start }

func (e *Expander) First(wd time.Weekday) time.Time {
	if d, ok := e.firsts[wd]; ok {
		return d
	}
	d := FirstOccurrence(e.start, wd)
	e.firsts[wd] = d
	return d
}

func (e *Expander) Occurrence(wd time.Weekday, week int) time.Time {
	return e.First(wd).AddDate(0, 0, 7*week)
}

// Dates lists the first weeks occurrences of wd as a weekly rule anchored on
// the expander's start date.
func (e *Expander) Dates(wd time.Weekday, weeks int) ([]time.Time, error) {
	if weeks <= 0 {
		return nil, nil
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   e.First(wd),
		Count:     weeks,
		Byweekday: []rrule.Weekday{ruleWeekday(wd)},
	})
	if err != nil {
		return nil, err
	}
	dates := rule.All()
	for i := range dates {
		dates[i] = domain.DateOf(dates[i])
	}
	return dates, nil
}

func ruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}
