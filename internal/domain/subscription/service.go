package subscription

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/domain/occupancy"
	"venuebook/internal/logger"
	"venuebook/internal/pkg/schedule"
	"venuebook/internal/repository"
)

// Service manages recurring weekly subscriptions and their dated slots.
type Service struct {
	store   *repository.Store
	signals VenueNotifier
	now     func() time.Time
	log     *zap.Logger
}

// NewService wires the manager. now returns the current time in the venues'
// local timezone; signals may be nil.
func NewService(store *repository.Store, signals VenueNotifier, now func() time.Time, log *zap.Logger) *Service {
	if signals == nil {
		signals = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, signals: signals, now: now, log: logger.OrNop(log)}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	return s.store.Subscriptions.GetByID(ctx, id)
}

func (s *Service) ListForVenue(ctx context.Context, venueID int64) ([]domain.Subscription, error) {
	if _, err := s.store.Venues.GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	return s.store.Subscriptions.ListForVenue(ctx, venueID)
}

// Create persists a subscription together with every slot generated from its
// templates. Nothing is written if any occurrence is rejected.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Subscription, error) {
	if in.ClientPhone == "" {
		return nil, errPhoneRequired
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, errInvalidStatus
	}

	start := domain.DateOf(in.StartDate)
	end := start.Add(domain.DefaultSubscriptionSpan)
	if in.EndDate != nil {
		end = domain.DateOf(*in.EndDate)
	}
	if end.Before(start) {
		return nil, errEndBeforeStart
	}

	sub := &domain.Subscription{
		ID:          uuid.NewString(),
		VenueID:     in.VenueID,
		ClientPhone: in.ClientPhone,
		StartDate:   start,
		EndDate:     end,
		Status:      in.Status,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		venue, err := tx.Venues.GetByID(ctx, in.VenueID)
		if err != nil {
			return err
		}
		slots, err := s.generate(ctx, tx, venue, sub, in.Slots, occupancy.Exclusion{})
		if err != nil {
			return err
		}
		sub.Slots = slots
		sub.TotalPrice = totalPrice(slots)
		sub.Status = sub.StatusOn(s.now())
		return tx.Subscriptions.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID),
		zap.Int64("venue_id", sub.VenueID),
		zap.Int("slots", len(sub.Slots)),
	)
	s.signals.VenueChanged(sub.VenueID)
	return sub, nil
}

// Update applies a patch. New templates replace every slot; a moved start date
// re-dates the existing slots week by week.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.Subscription, error) {
	if in.ClientPhone != nil && *in.ClientPhone == "" {
		return nil, errPhoneRequired
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, errInvalidStatus
	}

	var sub *domain.Subscription
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		sub, err = tx.Subscriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		venue, err := tx.Venues.GetByID(ctx, sub.VenueID)
		if err != nil {
			return err
		}

		oldStart, oldEnd := sub.StartDate, sub.EndDate
		if in.ClientPhone != nil {
			sub.ClientPhone = *in.ClientPhone
		}
		if in.StartDate != nil {
			sub.StartDate = domain.DateOf(*in.StartDate)
		}
		if in.EndDate != nil {
			sub.EndDate = domain.DateOf(*in.EndDate)
		} else if in.StartDate != nil && !sub.StartDate.Equal(domain.DateOf(oldStart)) {
			sub.EndDate = sub.StartDate.Add(domain.DefaultSubscriptionSpan)
		}
		if sub.EndDate.Before(sub.StartDate) {
			return errEndBeforeStart
		}
		startMoved := !domain.DateOf(oldStart).Equal(sub.StartDate)
		datesChanged := startMoved || !domain.DateOf(oldEnd).Equal(sub.EndDate)

		ex := occupancy.Exclusion{SubscriptionID: sub.ID, SlotIDs: make(map[int64]bool, len(sub.Slots))}
		for _, slot := range sub.Slots {
			ex.SlotIDs[slot.ID] = true
		}

		switch {
		case in.ReplaceSlots:
			if err := tx.Subscriptions.DeleteSlots(ctx, sub.ID); err != nil {
				return err
			}
			slots, err := s.generate(ctx, tx, venue, sub, in.Slots, ex)
			if err != nil {
				return err
			}
			for i := range slots {
				slots[i].SubscriptionID = sub.ID
			}
			if err := tx.Subscriptions.CreateSlots(ctx, slots); err != nil {
				return err
			}
			sub.Slots = slots
			sub.TotalPrice = totalPrice(slots)
		case startMoved:
			if err := s.redate(ctx, tx, sub, ex); err != nil {
				return err
			}
		}

		switch {
		case in.Status != nil:
			sub.Status = *in.Status
		case datesChanged:
			sub.Status = sub.StatusOn(s.now())
		}
		return tx.Subscriptions.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription updated", zap.String("subscription_id", sub.ID), zap.Int64("venue_id", sub.VenueID))
	s.signals.VenueChanged(sub.VenueID)
	return sub, nil
}

// Delete removes the subscription and, through the cascade, its slots.
func (s *Service) Delete(ctx context.Context, id string) error {
	var venueID int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		sub, err := tx.Subscriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		venueID = sub.VenueID
		return tx.Subscriptions.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("subscription deleted", zap.String("subscription_id", id), zap.Int64("venue_id", venueID))
	s.signals.VenueChanged(venueID)
	return nil
}

// generate expands templates into dated slots over the subscription's weeks.
// Occurrences that are already over, or fall after the end date, are skipped.
func (s *Service) generate(
	ctx context.Context,
	tx *repository.Store,
	venue *domain.Venue,
	sub *domain.Subscription,
	templates []SlotTemplate,
	ex occupancy.Exclusion,
) ([]domain.SubscriptionSlot, error) {
	checker := occupancy.NewChecker(tx)
	expander := schedule.NewExpander(sub.StartDate)
	weeks := schedule.NumberOfWeeks(sub.StartDate, sub.EndDate)
	now := s.now()

	var (
		slots   []domain.SubscriptionSlot
		pending []occupancy.Slot
	)
	for _, tpl := range templates {
		end := tpl.Start.Add(time.Hour)
		if tpl.End != nil {
			end = *tpl.End
		}
		if err := schedule.ValidateHours(venue.Hours(), tpl.Start, end); err != nil {
			return nil, err
		}
		price := venue.HourlyPrice
		if tpl.HourlyPrice != nil {
			price = *tpl.HourlyPrice
		}

		dates, err := expander.Dates(tpl.Weekday, weeks)
		if err != nil {
			return nil, err
		}
		for _, date := range dates {
			if date.After(sub.EndDate) || schedule.Elapsed(date, tpl.Start, end, now) {
				continue
			}
			candidate := occupancy.Slot{Date: date, Start: tpl.Start, End: end}
			if err := checker.Check(ctx, venue.ID, candidate, ex, pending...); err != nil {
				return nil, err
			}
			pending = append(pending, candidate)
			slots = append(slots, domain.SubscriptionSlot{
				SubscriptionID: sub.ID,
				Weekday:        tpl.Weekday,
				Date:           date,
				StartTime:      tpl.Start,
				EndTime:        end,
				HourlyPrice:    price,
			})
		}
	}
	return slots, nil
}

type signature struct {
	weekday time.Weekday
	start   domain.Clock
}

// redate moves existing slots onto the weeks following a new start date. Slots
// are taken in date order; the n-th slot lands in week n / distinct patterns.
// Only slots whose date changes are re-checked for conflicts. Slots that would
// land after the end date are removed.
func (s *Service) redate(ctx context.Context, tx *repository.Store, sub *domain.Subscription, ex occupancy.Exclusion) error {
	slots := sub.Slots
	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime < slots[j].StartTime
	})

	seen := make(map[signature]bool)
	var distinct int
	for _, slot := range slots {
		sig := signature{slot.Weekday, slot.StartTime}
		if !seen[sig] {
			seen[sig] = true
			distinct++
		}
	}
	if distinct == 0 {
		return nil
	}

	checker := occupancy.NewChecker(tx)
	expander := schedule.NewExpander(sub.StartDate)
	placed := make([]occupancy.Slot, 0, len(slots))
	kept := make([]domain.SubscriptionSlot, 0, len(slots))
	var dropped []int64
	for i := range slots {
		slot := &slots[i]
		date := expander.Occurrence(slot.Weekday, i/distinct)
		if date.After(sub.EndDate) {
			dropped = append(dropped, slot.ID)
			continue
		}
		candidate := occupancy.Slot{Date: date, Start: slot.StartTime, End: slot.EndTime}
		if !date.Equal(domain.DateOf(slot.Date)) {
			if err := checker.Check(ctx, sub.VenueID, candidate, ex, placed...); err != nil {
				return err
			}
			slot.Date = date
			if err := tx.Subscriptions.UpdateSlot(ctx, slot); err != nil {
				return err
			}
		}
		placed = append(placed, candidate)
		kept = append(kept, *slot)
	}
	if err := tx.Subscriptions.DeleteSlotsByID(ctx, dropped); err != nil {
		return err
	}
	sub.Slots = kept
	sub.TotalPrice = totalPrice(kept)
	return nil
}

func totalPrice(slots []domain.SubscriptionSlot) float64 {
	var total float64
	for _, slot := range slots {
		total += slot.HourlyPrice
	}
	return total
}
