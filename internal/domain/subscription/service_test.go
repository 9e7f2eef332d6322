package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) VenueChanged(venueID int64) {
	m.Called(venueID)
}

func clk(h, m int) domain.Clock { return domain.NewClock(h, m) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func clockPtr(c domain.Clock) *domain.Clock { return &c }

type fixture struct {
	svc      *Service
	store    *repository.Store
	venue    *domain.Venue
	notifier *MockNotifier
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()
	store := repository.NewStore(database.OpenTest(t))
	venue := &domain.Venue{Name: "Pitch 1", OpenTime: clk(8, 0), CloseTime: clk(23, 0), HourlyPrice: 50}
	require.NoError(t, store.Venues.Create(context.Background(), venue))

	notifier := &MockNotifier{}
	svc := NewService(store, notifier, func() time.Time { return now }, nil)
	return &fixture{svc: svc, store: store, venue: venue, notifier: notifier}
}

var beforeStart = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func TestCreate_GeneratesWeeklySlots(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID).Once()

	sub, err := f.svc.Create(context.Background(), CreateInput{
		VenueID:     f.venue.ID,
		ClientPhone: "+33600000001",
		StartDate:   date(2026, 1, 15),
		Slots:       []SlotTemplate{{Weekday: time.Thursday, Start: clk(18, 0)}},
	})
	require.NoError(t, err)

	assert.Equal(t, date(2026, 2, 12), sub.EndDate)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	require.Len(t, sub.Slots, 4)
	for i, slot := range sub.Slots {
		assert.Equal(t, date(2026, 1, 15).AddDate(0, 0, 7*i), domain.DateOf(slot.Date))
		assert.Equal(t, clk(19, 0), slot.EndTime)
		assert.Equal(t, 50.0, slot.HourlyPrice)
	}
	assert.Equal(t, 200.0, sub.TotalPrice)

	stored, err := f.svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Slots, 4)
	f.notifier.AssertExpectations(t)
}

func TestCreate_FirstOccurrenceFollowsStartDate(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)

	sub, err := f.svc.Create(context.Background(), CreateInput{
		VenueID:     f.venue.ID,
		ClientPhone: "+33600000001",
		StartDate:   date(2026, 1, 15),
		Slots: []SlotTemplate{
			{Weekday: time.Friday, Start: clk(10, 0), End: clockPtr(clk(12, 0))},
			{Weekday: time.Thursday, Start: clk(10, 0), End: clockPtr(clk(12, 0))},
		},
	})
	require.NoError(t, err)

	var firstFriday, firstThursday time.Time
	for _, slot := range sub.Slots {
		d := domain.DateOf(slot.Date)
		if slot.Weekday == time.Friday && (firstFriday.IsZero() || d.Before(firstFriday)) {
			firstFriday = d
		}
		if slot.Weekday == time.Thursday && (firstThursday.IsZero() || d.Before(firstThursday)) {
			firstThursday = d
		}
	}
	assert.Equal(t, date(2026, 1, 16), firstFriday)
	assert.Equal(t, date(2026, 1, 15), firstThursday)
}

func TestCreate_SkipsElapsedOccurrences(t *testing.T) {
	now := time.Date(2026, 1, 22, 19, 30, 0, 0, time.UTC)
	f := setup(t, now)
	f.notifier.On("VenueChanged", f.venue.ID)

	sub, err := f.svc.Create(context.Background(), CreateInput{
		VenueID:     f.venue.ID,
		ClientPhone: "+33600000001",
		StartDate:   date(2026, 1, 15),
		Slots:       []SlotTemplate{{Weekday: time.Thursday, Start: clk(18, 0)}},
	})
	require.NoError(t, err)

	require.Len(t, sub.Slots, 2)
	assert.Equal(t, date(2026, 1, 29), domain.DateOf(sub.Slots[0].Date))
	assert.Equal(t, date(2026, 2, 5), domain.DateOf(sub.Slots[1].Date))
}

func TestCreate_ConflictRollsBackEverything(t *testing.T) {
	f := setup(t, beforeStart)
	ctx := context.Background()
	require.NoError(t, f.store.Bookings.Create(ctx, &domain.OneOffBooking{
		VenueID: f.venue.ID, Date: date(2026, 1, 29), StartTime: clk(18, 30), EndTime: clk(19, 30),
	}))

	_, err := f.svc.Create(ctx, CreateInput{
		VenueID:     f.venue.ID,
		ClientPhone: "+33600000001",
		StartDate:   date(2026, 1, 15),
		Slots:       []SlotTemplate{{Weekday: time.Thursday, Start: clk(18, 0)}},
	})

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, date(2026, 1, 29), conflict.Date)

	subs, err := f.svc.ListForVenue(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
	f.notifier.AssertNotCalled(t, "VenueChanged", mock.Anything)
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t, beforeStart)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      CreateInput
		wantErr error
	}{
		{
			name: "outside opening hours",
			in: CreateInput{VenueID: f.venue.ID, ClientPhone: "1", StartDate: date(2026, 1, 15),
				Slots: []SlotTemplate{{Weekday: time.Monday, Start: clk(6, 0)}}},
			wantErr: domain.ErrOutOfHours,
		},
		{
			name: "overlapping templates",
			in: CreateInput{VenueID: f.venue.ID, ClientPhone: "1", StartDate: date(2026, 1, 15),
				Slots: []SlotTemplate{
					{Weekday: time.Monday, Start: clk(10, 0), End: clockPtr(clk(12, 0))},
					{Weekday: time.Monday, Start: clk(11, 0)},
				}},
			wantErr: domain.ErrConflict,
		},
		{
			name: "end before start",
			in: CreateInput{VenueID: f.venue.ID, ClientPhone: "1", StartDate: date(2026, 1, 15),
				EndDate: func() *time.Time { d := date(2026, 1, 1); return &d }()},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown venue",
			in:      CreateInput{VenueID: 9999, ClientPhone: "1", StartDate: date(2026, 1, 15)},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "missing phone",
			in:      CreateInput{VenueID: f.venue.ID, StartDate: date(2026, 1, 15)},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func createTwoPatterns(t *testing.T, f *fixture) *domain.Subscription {
	t.Helper()
	sub, err := f.svc.Create(context.Background(), CreateInput{
		VenueID:     f.venue.ID,
		ClientPhone: "+33600000002",
		StartDate:   date(2026, 1, 15),
		Slots: []SlotTemplate{
			{Weekday: time.Thursday, Start: clk(18, 0)},
			{Weekday: time.Saturday, Start: clk(10, 0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, sub.Slots, 8)
	return sub
}

func TestUpdate_MovingStartRedatesSlots(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	newStart := date(2026, 1, 22)
	updated, err := f.svc.Update(ctx, sub.ID, UpdateInput{StartDate: &newStart})
	require.NoError(t, err)

	assert.Equal(t, date(2026, 2, 19), updated.EndDate)
	stored, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, stored.Slots, 8)
	assert.Equal(t, date(2026, 1, 22), domain.DateOf(stored.Slots[0].Date))
	assert.Equal(t, time.Thursday, stored.Slots[0].Weekday)
	assert.Equal(t, date(2026, 1, 24), domain.DateOf(stored.Slots[1].Date))
	assert.Equal(t, time.Saturday, stored.Slots[1].Weekday)
	for _, slot := range stored.Slots {
		assert.Equal(t, slot.Weekday, slot.Date.Weekday())
		assert.False(t, domain.DateOf(slot.Date).Before(newStart))
		assert.False(t, domain.DateOf(slot.Date).After(stored.EndDate), "slot %s on %s", slot.Weekday, slot.Date)
	}
	assert.Equal(t, sub.TotalPrice, stored.TotalPrice)
}

func TestUpdate_RedateDropsSlotsAfterEnd(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	newStart, newEnd := date(2026, 1, 22), date(2026, 2, 8)
	updated, err := f.svc.Update(ctx, sub.ID, UpdateInput{StartDate: &newStart, EndDate: &newEnd})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndDate)

	stored, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, stored.Slots, 6)
	for _, slot := range stored.Slots {
		assert.False(t, domain.DateOf(slot.Date).After(newEnd), "slot %s on %s", slot.Weekday, slot.Date)
	}
	assert.InDelta(t, sub.TotalPrice*6/8, stored.TotalPrice, 0.001)
}

func TestUpdate_RedateConflictsWithOtherBooking(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	require.NoError(t, f.store.Bookings.Create(ctx, &domain.OneOffBooking{
		VenueID: f.venue.ID, Date: date(2026, 2, 12), StartTime: clk(18, 0), EndTime: clk(19, 0),
	}))

	newStart := date(2026, 1, 22)
	_, err := f.svc.Update(ctx, sub.ID, UpdateInput{StartDate: &newStart})
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 15), domain.DateOf(stored.StartDate))
	assert.Equal(t, date(2026, 1, 15), domain.DateOf(stored.Slots[0].Date))
}

func TestUpdate_StartAfterEndResetsEnd(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	newStart := date(2026, 3, 5)
	updated, err := f.svc.Update(ctx, sub.ID, UpdateInput{StartDate: &newStart})
	require.NoError(t, err)
	assert.Equal(t, date(2026, 4, 2), updated.EndDate)
}

func TestUpdate_ReplaceTemplates(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	price := 30.0
	updated, err := f.svc.Update(ctx, sub.ID, UpdateInput{
		ReplaceSlots: true,
		Slots:        []SlotTemplate{{Weekday: time.Thursday, Start: clk(18, 30), HourlyPrice: &price}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Slots, 4)
	assert.Equal(t, 120.0, updated.TotalPrice)

	stored, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, stored.Slots, 4)
	assert.Equal(t, clk(18, 30), stored.Slots[0].StartTime)
}

func TestUpdate_StatusRules(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	suspended := domain.SubscriptionSuspended
	_, err := f.svc.Update(ctx, sub.ID, UpdateInput{Status: &suspended})
	require.NoError(t, err)

	end := date(2026, 2, 20)
	updated, err := f.svc.Update(ctx, sub.ID, UpdateInput{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionSuspended, updated.Status)

	active := domain.SubscriptionActive
	updated, err = f.svc.Update(ctx, sub.ID, UpdateInput{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, updated.Status)

	pastEnd := date(2026, 1, 9)
	pastStart := date(2026, 1, 1)
	updated, err = f.svc.Update(ctx, sub.ID, UpdateInput{StartDate: &pastStart, EndDate: &pastEnd})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionEnded, updated.Status)
}

func TestUpdate_NotFound(t *testing.T) {
	f := setup(t, beforeStart)
	phone := "+1"
	_, err := f.svc.Update(context.Background(), "missing", UpdateInput{ClientPhone: &phone})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := setup(t, beforeStart)
	f.notifier.On("VenueChanged", f.venue.ID)
	ctx := context.Background()
	sub := createTwoPatterns(t, f)

	require.NoError(t, f.svc.Delete(ctx, sub.ID))

	_, err := f.svc.Get(ctx, sub.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	slots, err := f.store.Subscriptions.FindSlotsForVenue(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)

	assert.ErrorIs(t, f.svc.Delete(ctx, sub.ID), domain.ErrNotFound)
	f.notifier.AssertNumberOfCalls(t, "VenueChanged", 2)
}
