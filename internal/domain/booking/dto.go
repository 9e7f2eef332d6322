package booking

import (
	"strings"
	"time"

	"venuebook/internal/domain"
)

// CreateInput describes a new one-off booking. A nil End means one hour after
// Start; a nil Price is the venue's hourly price times the duration.
type CreateInput struct {
	VenueID     int64
	Date        time.Time
	Start       domain.Clock
	End         *domain.Clock
	Price       *float64
	ClientPhone string
}

// UpdateInput patches a booking. Moving Start without End keeps a one hour
// duration.
type UpdateInput struct {
	Date        *time.Time
	Start       *domain.Clock
	End         *domain.Clock
	Price       *float64
	ClientPhone *string
}

type CreateBookingRequest struct {
	VenueID     int64    `json:"venue_id" validate:"required,gt=0"`
	Date        string   `json:"date" validate:"required"`
	StartTime   string   `json:"start_time" validate:"required"`
	EndTime     string   `json:"end_time"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	ClientPhone string   `json:"client_phone" validate:"max=32"`
}

type UpdateBookingRequest struct {
	Date        *string  `json:"date"`
	StartTime   *string  `json:"start_time"`
	EndTime     *string  `json:"end_time"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	ClientPhone *string  `json:"client_phone" validate:"omitempty,max=32"`
}

func parseClock(field, s string) (domain.Clock, error) {
	c, err := domain.ParseClock(s)
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Reason: "expected HH:MM"}
	}
	return c, nil
}

func parseDate(field, s string) (time.Time, error) {
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}

func (r *CreateBookingRequest) toInput() (CreateInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return CreateInput{}, err
	}
	start, err := parseClock("start_time", r.StartTime)
	if err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		VenueID:     r.VenueID,
		Date:        date,
		Start:       start,
		Price:       r.Price,
		ClientPhone: strings.TrimSpace(r.ClientPhone),
	}
	if strings.TrimSpace(r.EndTime) != "" {
		end, err := parseClock("end_time", r.EndTime)
		if err != nil {
			return CreateInput{}, err
		}
		in.End = &end
	}
	return in, nil
}

func (r *UpdateBookingRequest) toInput() (UpdateInput, error) {
	in := UpdateInput{Price: r.Price}
	if r.Date != nil {
		date, err := parseDate("date", *r.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	if r.StartTime != nil {
		start, err := parseClock("start_time", *r.StartTime)
		if err != nil {
			return in, err
		}
		in.Start = &start
	}
	if r.EndTime != nil {
		end, err := parseClock("end_time", *r.EndTime)
		if err != nil {
			return in, err
		}
		in.End = &end
	}
	if r.ClientPhone != nil {
		phone := strings.TrimSpace(*r.ClientPhone)
		in.ClientPhone = &phone
	}
	return in, nil
}
