package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"venuebook/internal/database"
	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, action domain.ChangeAction, entry domain.UnavailabilityEntry, ownerPhone string) error {
	args := m.Called(ctx, action, entry, ownerPhone)
	return args.Error(0)
}

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) SyncDone(ctx context.Context, venueID int64) error {
	return m.Called(ctx, venueID).Error(0)
}

const ownerPhone = "+33611223344"

type env struct {
	store     *repository.Store
	venue     *domain.Venue
	publisher *MockPublisher
	remote    *MockRemote
	rec       *Reconciler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(database.OpenTest(t))

	owner := &domain.Owner{Name: "Owner", Phone: ownerPhone}
	require.NoError(t, store.Venues.CreateOwner(ctx, owner))
	venue := &domain.Venue{OwnerID: owner.ID, Name: "Five-a-side", OpenTime: clk(8, 0), CloseTime: clk(23, 0)}
	require.NoError(t, store.Venues.Create(ctx, venue))

	e := &env{store: store, venue: venue, publisher: &MockPublisher{}, remote: &MockRemote{}}
	e.rec = New(store, e.publisher, e.remote, nil)
	return e
}

func (e *env) seedSources(t *testing.T) (*domain.OneOffBooking, *domain.Subscription) {
	t.Helper()
	ctx := context.Background()
	booking := &domain.OneOffBooking{VenueID: e.venue.ID, Date: planDay, StartTime: clk(10, 0), EndTime: clk(11, 0)}
	require.NoError(t, e.store.Bookings.Create(ctx, booking))

	sub := &domain.Subscription{
		ID: "3d0c9d4e-5f0b-4bde-9d59-2b9e1a7c0a11", VenueID: e.venue.ID,
		StartDate: planDay, EndDate: planDay.AddDate(0, 0, 28), Status: domain.SubscriptionActive,
		Slots: []domain.SubscriptionSlot{
			{Weekday: planDay.Weekday(), Date: planDay, StartTime: clk(18, 0), EndTime: clk(19, 0)},
			{Weekday: planDay.Weekday(), Date: planDay.AddDate(0, 0, 7), StartTime: clk(18, 0), EndTime: clk(19, 0)},
		},
	}
	require.NoError(t, e.store.Subscriptions.Create(ctx, sub))
	return booking, sub
}

func (e *env) index(t *testing.T) []domain.UnavailabilityEntry {
	t.Helper()
	entries, err := e.store.Unavailability.FindAllForVenue(context.Background(), e.venue.ID)
	require.NoError(t, err)
	return entries
}

func TestReconcile_IsIdempotent(t *testing.T) {
	env := newEnv(t)
	env.seedSources(t)
	env.publisher.On("Publish", mock.Anything, domain.ActionCreated, mock.Anything, ownerPhone).Return(nil)
	env.remote.On("SyncDone", mock.Anything, env.venue.ID).Return(nil)
	ctx := context.Background()

	report, err := env.rec.Reconcile(ctx, env.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Len(t, env.index(t), 3)

	report, err = env.rec.Reconcile(ctx, env.venue.ID)
	require.NoError(t, err)
	assert.False(t, report.Changed())

	env.publisher.AssertNumberOfCalls(t, "Publish", 3)
	env.remote.AssertNumberOfCalls(t, "SyncDone", 2)
}

func TestReconcile_ConvergesAfterSourceChanges(t *testing.T) {
	env := newEnv(t)
	booking, sub := env.seedSources(t)
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, ownerPhone).Return(nil)
	env.remote.On("SyncDone", mock.Anything, env.venue.ID).Return(nil)
	ctx := context.Background()

	_, err := env.rec.Reconcile(ctx, env.venue.ID)
	require.NoError(t, err)
	before := env.index(t)

	booking.StartTime, booking.EndTime = clk(12, 0), clk(13, 30)
	require.NoError(t, env.store.Bookings.Update(ctx, booking))
	require.NoError(t, env.store.Subscriptions.Delete(ctx, sub.ID))

	report, err := env.rec.Reconcile(ctx, env.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Deleted)

	after := env.index(t)
	require.Len(t, after, 1)
	assert.Equal(t, domain.SourceOneOff, after[0].SourceKind)
	assert.Equal(t, booking.ID, *after[0].SourceID)
	assert.Equal(t, clk(12, 0), after[0].StartTime)
	assert.Equal(t, clk(13, 30), after[0].EndTime)

	var original string
	for _, e := range before {
		if e.SourceKind == domain.SourceOneOff {
			original = e.StableID
		}
	}
	assert.Equal(t, original, after[0].StableID, "updates keep the stable id")

	env.publisher.AssertCalled(t, "Publish", mock.Anything, domain.ActionUpdated, mock.Anything, ownerPhone)
	env.publisher.AssertCalled(t, "Publish", mock.Anything, domain.ActionDeleted, mock.Anything, ownerPhone)
}

func TestReconcile_PurgesEntriesWithoutSource(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Unavailability.Create(ctx, &domain.UnavailabilityEntry{
		StableID: "remote-only", VenueID: env.venue.ID, Date: planDay, StartTime: clk(9, 0), EndTime: clk(10, 0),
	}))
	env.publisher.On("Publish", mock.Anything, domain.ActionDeleted, mock.Anything, ownerPhone).Return(nil)
	env.remote.On("SyncDone", mock.Anything, env.venue.ID).Return(nil)

	report, err := env.rec.Reconcile(ctx, env.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Empty(t, env.index(t))
}

func TestReconcile_PublishFailureIsNotFatal(t *testing.T) {
	env := newEnv(t)
	env.seedSources(t)
	env.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.SyncError{Op: "publish", Err: errors.New("broker down")})
	env.remote.On("SyncDone", mock.Anything, env.venue.ID).Return(errors.New("remote down"))

	report, err := env.rec.Reconcile(context.Background(), env.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Len(t, env.index(t), 3)
}

func TestReconcile_WithoutPublisher(t *testing.T) {
	env := newEnv(t)
	env.seedSources(t)
	rec := New(env.store, nil, nil, nil, WithStableIDs(sequentialIDs()))

	report, err := rec.Reconcile(context.Background(), env.venue.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	_, err = env.store.Unavailability.GetByStableID(context.Background(), "stable-1")
	assert.NoError(t, err)
}

func TestApply_SkipsDuplicateCreate(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Unavailability.Create(ctx, &domain.UnavailabilityEntry{
		StableID: "first", VenueID: env.venue.ID, Date: planDay, StartTime: clk(9, 0), EndTime: clk(10, 0),
		SourceKind: domain.SourceOneOff, SourceID: int64p(5), Description: domain.OneOffDescription,
	}))

	plan := &Plan{VenueID: env.venue.ID, Creates: []domain.UnavailabilityEntry{
		{StableID: "racer", VenueID: env.venue.ID, Date: planDay, StartTime: clk(9, 0), EndTime: clk(10, 0),
			SourceKind: domain.SourceOneOff, SourceID: int64p(5), Description: domain.OneOffDescription},
		{StableID: "fresh", VenueID: env.venue.ID, Date: planDay, StartTime: clk(11, 0), EndTime: clk(12, 0),
			SourceKind: domain.SourceOneOff, SourceID: int64p(6), Description: domain.OneOffDescription},
	}}

	var (
		changes []Change
		skipped int
	)
	err := env.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		changes, skipped, err = env.rec.apply(ctx, tx, plan)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, changes, 1)
	assert.Equal(t, "fresh", changes[0].Entry.StableID)
	assert.Len(t, env.index(t), 2)
}

func TestReconcile_CancelledWhileWaitingForLock(t *testing.T) {
	env := newEnv(t)
	unlock, err := env.rec.locks.Lock(context.Background(), env.venue.ID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = env.rec.Reconcile(ctx, env.venue.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
