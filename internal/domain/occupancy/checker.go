// Package occupancy answers whether a requested slot collides with anything
// already holding the venue: one-off bookings, subscription slots and the
// unavailability index.
package occupancy

import (
	"context"
	"fmt"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/pkg/schedule"
	"venuebook/internal/repository"
)

// Exclusion leaves the caller's own prior state out of a check, so an edit
// never conflicts with the row it replaces.
type Exclusion struct {
	BookingID      int64
	SubscriptionID string
	// SlotIDs are the subscription's slots as they were before the edit. Index
	// entries pointing at them are ignored.
	SlotIDs map[int64]bool
}

func (ex Exclusion) skipsEntry(e *domain.UnavailabilityEntry) bool {
	key, ok := e.Key()
	if !ok {
		return false
	}
	switch key.Kind {
	case domain.SourceOneOff:
		return ex.BookingID != 0 && key.ID == ex.BookingID
	case domain.SourceSubscription:
		return ex.SlotIDs[key.ID]
	}
	return false
}

// Slot is a candidate occupancy.
type Slot struct {
	Date  time.Time
	Start domain.Clock
	End   domain.Clock
}

func (s Slot) overlaps(date time.Time, start, end domain.Clock) bool {
	return domain.DateOf(s.Date).Equal(domain.DateOf(date)) &&
		schedule.Overlaps(s.Start, s.End, start, end)
}

// conflictWith quotes the existing occupancy the request ran into.
func conflictWith(date time.Time, start, end domain.Clock, source string) *domain.ConflictError {
	return &domain.ConflictError{Date: domain.DateOf(date), Start: start, End: end, Source: source}
}

type Checker struct {
	store *repository.Store
}

// NewChecker binds a checker to store. Pass the transaction-bound store when
// the check must see uncommitted writes of the same transaction.
func NewChecker(store *repository.Store) *Checker {
	return &Checker{store: store}
}

// Check returns a *domain.ConflictError quoting the range and source of the
// first existing occupancy of the venue that overlaps slot. pending holds slots of the same request that
// are not persisted yet.
func (c *Checker) Check(ctx context.Context, venueID int64, slot Slot, ex Exclusion, pending ...Slot) error {
	for _, p := range pending {
		if slot.overlaps(p.Date, p.Start, p.End) {
			return conflictWith(p.Date, p.Start, p.End, "another slot of this request")
		}
	}

	bookings, err := c.store.Bookings.FindForVenueAndDate(ctx, venueID, slot.Date)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if ex.BookingID != 0 && b.ID == ex.BookingID {
			continue
		}
		if slot.overlaps(b.Date, b.StartTime, b.EndTime) {
			return conflictWith(b.Date, b.StartTime, b.EndTime, fmt.Sprintf("one-off booking #%d", b.ID))
		}
	}

	slots, err := c.store.Subscriptions.FindSlotsForVenueAndDate(ctx, venueID, slot.Date, ex.SubscriptionID)
	if err != nil {
		return err
	}
	for _, s := range slots {
		if slot.overlaps(s.Date, s.StartTime, s.EndTime) {
			return conflictWith(s.Date, s.StartTime, s.EndTime, fmt.Sprintf("subscription %s", s.SubscriptionID))
		}
	}

	entries, err := c.store.Unavailability.FindForVenueAndDate(ctx, venueID, slot.Date)
	if err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		if ex.skipsEntry(e) {
			continue
		}
		if slot.overlaps(e.Date, e.StartTime, e.EndTime) {
			return conflictWith(e.Date, e.StartTime, e.EndTime, fmt.Sprintf("unavailability %q", e.Description))
		}
	}
	return nil
}
