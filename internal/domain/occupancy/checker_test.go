package occupancy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

var day = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

func clk(h, m int) domain.Clock { return domain.NewClock(h, m) }

func setup(t *testing.T) (*repository.Store, *domain.Venue) {
	t.Helper()
	store := repository.NewStore(database.OpenTest(t))
	venue := &domain.Venue{Name: "Court A", OpenTime: clk(8, 0), CloseTime: clk(23, 0), HourlyPrice: 40}
	require.NoError(t, store.Venues.Create(context.Background(), venue))
	return store, venue
}

func TestChecker_OneOffBooking(t *testing.T) {
	ctx := context.Background()
	store, venue := setup(t)
	booking := &domain.OneOffBooking{VenueID: venue.ID, Date: day, StartTime: clk(10, 0), EndTime: clk(11, 0)}
	require.NoError(t, store.Bookings.Create(ctx, booking))

	c := NewChecker(store)

	err := c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(10, 30), End: clk(11, 30)}, Exclusion{})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Source, "one-off booking")
	assert.Equal(t, clk(10, 0), conflict.Start)
	assert.Equal(t, clk(11, 0), conflict.End)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.NoError(t, c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(11, 0), End: clk(12, 0)}, Exclusion{}))
	assert.NoError(t, c.Check(ctx, venue.ID, Slot{Date: day.AddDate(0, 0, 1), Start: clk(10, 0), End: clk(11, 0)}, Exclusion{}))
	assert.NoError(t, c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(10, 0), End: clk(11, 0)}, Exclusion{BookingID: booking.ID}))
}

func TestChecker_SubscriptionSlots(t *testing.T) {
	ctx := context.Background()
	store, venue := setup(t)
	sub := &domain.Subscription{
		ID: "7f1c9a52-0d7e-4c59-9a55-0c7ad2b9b001", VenueID: venue.ID,
		StartDate: day, EndDate: day.AddDate(0, 0, 28), Status: domain.SubscriptionActive,
		Slots: []domain.SubscriptionSlot{
			{Weekday: day.Weekday(), Date: day, StartTime: clk(18, 0), EndTime: clk(19, 0)},
		},
	}
	require.NoError(t, store.Subscriptions.Create(ctx, sub))

	c := NewChecker(store)
	slot := Slot{Date: day, Start: clk(18, 0), End: clk(18, 30)}

	err := c.Check(ctx, venue.ID, slot, Exclusion{})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, clk(19, 0), conflict.End)
	assert.Contains(t, conflict.Source, sub.ID)
	assert.NoError(t, c.Check(ctx, venue.ID, slot, Exclusion{SubscriptionID: sub.ID}))
}

func TestChecker_IndexEntries(t *testing.T) {
	ctx := context.Background()
	store, venue := setup(t)
	sourceID := int64(42)
	require.NoError(t, store.Unavailability.Create(ctx, &domain.UnavailabilityEntry{
		StableID: "entry-1", VenueID: venue.ID, Date: day,
		StartTime: clk(20, 0), EndTime: clk(21, 0),
		SourceKind: domain.SourceSubscription, SourceID: &sourceID,
		Description: domain.SubscriptionDescription(day.Weekday()),
	}))
	require.NoError(t, store.Unavailability.Create(ctx, &domain.UnavailabilityEntry{
		StableID: "entry-2", VenueID: venue.ID, Date: day,
		StartTime: clk(8, 0), EndTime: clk(9, 0),
		Description: "Maintenance",
	}))

	c := NewChecker(store)

	err := c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(20, 30), End: clk(21, 30)}, Exclusion{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, `slot conflicts with unavailability "`+domain.SubscriptionDescription(day.Weekday())+
		`" on `+day.Format(domain.DateLayout)+` from 20:00 to 21:00`)

	err = c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(20, 30), End: clk(21, 30)}, Exclusion{SlotIDs: map[int64]bool{42: true}})
	assert.NoError(t, err)

	err = c.Check(ctx, venue.ID, Slot{Date: day, Start: clk(8, 0), End: clk(8, 30)}, Exclusion{SlotIDs: map[int64]bool{42: true}})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Source, "Maintenance")
}

func TestChecker_PendingSlots(t *testing.T) {
	store, venue := setup(t)
	c := NewChecker(store)

	pending := []Slot{{Date: day, Start: clk(12, 0), End: clk(13, 0)}}
	err := c.Check(context.Background(), venue.ID, Slot{Date: day, Start: clk(12, 30), End: clk(13, 30)}, Exclusion{}, pending...)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, clk(12, 0), conflict.Start)

	err = c.Check(context.Background(), venue.ID, Slot{Date: day.AddDate(0, 0, 7), Start: clk(12, 30), End: clk(13, 30)}, Exclusion{}, pending...)
	assert.NoError(t, err)
}
