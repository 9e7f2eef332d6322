// Package unavailability is the read side of the unavailability index. Writes
// belong to the reconciler and the sync consumer.
package unavailability

import (
	"context"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

type Service struct {
	store *repository.Store
	now   func() time.Time
}

func NewService(store *repository.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Occupied returns the venue's index entries ordered by date and start time.
// A zero from or to leaves that side of the window open.
func (s *Service) Occupied(ctx context.Context, venueID int64, from, to time.Time) ([]domain.UnavailabilityEntry, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, &domain.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	if _, err := s.store.Venues.GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	if !from.IsZero() {
		from = domain.DateOf(from)
	}
	if !to.IsZero() {
		to = domain.DateOf(to)
	}
	return s.store.Unavailability.FindForVenueAndDateRange(ctx, venueID, from, to)
}

// Upcoming returns entries dated today or later.
func (s *Service) Upcoming(ctx context.Context, venueID int64) ([]domain.UnavailabilityEntry, error) {
	return s.Occupied(ctx, venueID, s.now(), time.Time{})
}

func (s *Service) GetByStableID(ctx context.Context, stableID string) (*domain.UnavailabilityEntry, error) {
	return s.store.Unavailability.GetByStableID(ctx, stableID)
}
