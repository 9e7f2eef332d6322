package subscription

import (
	"strconv"
	"strings"
	"time"

	"venuebook/internal/domain"
)

// SlotTemplate is one weekly occurrence pattern of a subscription. A nil End
// means one hour after Start; a nil HourlyPrice takes the venue's price.
type SlotTemplate struct {
	Weekday     time.Weekday
	Start       domain.Clock
	End         *domain.Clock
	HourlyPrice *float64
}

type CreateInput struct {
	VenueID     int64
	ClientPhone string
	StartDate   time.Time
	EndDate     *time.Time
	Status      domain.SubscriptionStatus
	Slots       []SlotTemplate
}

// UpdateInput patches a subscription. Nil fields are left alone; Slots is only
// applied when ReplaceSlots is set.
type UpdateInput struct {
	ClientPhone  *string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *domain.SubscriptionStatus
	ReplaceSlots bool
	Slots        []SlotTemplate
}

type SlotTemplateRequest struct {
	Weekday     string   `json:"weekday" validate:"required"`
	StartTime   string   `json:"start_time" validate:"required"`
	EndTime     string   `json:"end_time"`
	HourlyPrice *float64 `json:"hourly_price" validate:"omitempty,gte=0"`
}

type CreateSubscriptionRequest struct {
	VenueID     int64                 `json:"venue_id" validate:"required,gt=0"`
	ClientPhone string                `json:"client_phone" validate:"required,max=32"`
	StartDate   string                `json:"start_date" validate:"required"`
	EndDate     string                `json:"end_date"`
	Status      string                `json:"status" validate:"omitempty,oneof=active suspended"`
	Slots       []SlotTemplateRequest `json:"slots" validate:"dive"`
}

type UpdateSubscriptionRequest struct {
	ClientPhone *string                `json:"client_phone" validate:"omitempty,max=32"`
	StartDate   *string                `json:"start_date"`
	EndDate     *string                `json:"end_date"`
	Status      *string                `json:"status" validate:"omitempty,oneof=active suspended ended"`
	Slots       *[]SlotTemplateRequest `json:"slots" validate:"omitempty,dive"`
}

func (r SlotTemplateRequest) toTemplate(field string) (SlotTemplate, error) {
	wd, err := domain.ParseWeekday(r.Weekday)
	if err != nil {
		return SlotTemplate{}, &domain.ValidationError{Field: field + ".weekday", Reason: err.Error()}
	}
	start, err := domain.ParseClock(r.StartTime)
	if err != nil {
		return SlotTemplate{}, &domain.ValidationError{Field: field + ".start_time", Reason: err.Error()}
	}
	tpl := SlotTemplate{Weekday: wd, Start: start, HourlyPrice: r.HourlyPrice}
	if strings.TrimSpace(r.EndTime) != "" {
		end, err := domain.ParseClock(r.EndTime)
		if err != nil {
			return SlotTemplate{}, &domain.ValidationError{Field: field + ".end_time", Reason: err.Error()}
		}
		tpl.End = &end
	}
	return tpl, nil
}

func toTemplates(reqs []SlotTemplateRequest) ([]SlotTemplate, error) {
	out := make([]SlotTemplate, 0, len(reqs))
	for i, r := range reqs {
		tpl, err := r.toTemplate("slots[" + strconv.Itoa(i) + "]")
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return &d, nil
}

func (r *CreateSubscriptionRequest) toInput() (CreateInput, error) {
	start, err := parseOptionalDate("start_date", &r.StartDate)
	if err != nil {
		return CreateInput{}, err
	}
	if start == nil {
		return CreateInput{}, &domain.ValidationError{Field: "start_date", Reason: "is required"}
	}
	end, err := parseOptionalDate("end_date", &r.EndDate)
	if err != nil {
		return CreateInput{}, err
	}
	slots, err := toTemplates(r.Slots)
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		VenueID:     r.VenueID,
		ClientPhone: strings.TrimSpace(r.ClientPhone),
		StartDate:   *start,
		EndDate:     end,
		Status:      domain.SubscriptionStatus(r.Status),
		Slots:       slots,
	}, nil
}

func (r *UpdateSubscriptionRequest) toInput() (UpdateInput, error) {
	var in UpdateInput
	var err error
	if in.StartDate, err = parseOptionalDate("start_date", r.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseOptionalDate("end_date", r.EndDate); err != nil {
		return in, err
	}
	if r.ClientPhone != nil {
		phone := strings.TrimSpace(*r.ClientPhone)
		in.ClientPhone = &phone
	}
	if r.Status != nil {
		status := domain.SubscriptionStatus(*r.Status)
		in.Status = &status
	}
	if r.Slots != nil {
		in.ReplaceSlots = true
		if in.Slots, err = toTemplates(*r.Slots); err != nil {
			return in, err
		}
	}
	return in, nil
}
