package booking

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/domain/occupancy"
	"venuebook/internal/logger"
	"venuebook/internal/pkg/schedule"
	"venuebook/internal/repository"
)

// Service manages one-off bookings.
type Service struct {
	store   *repository.Store
	signals VenueNotifier
	now     func() time.Time
	log     *zap.Logger
}

func NewService(store *repository.Store, signals VenueNotifier, now func() time.Time, log *zap.Logger) *Service {
	if signals == nil {
		signals = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, signals: signals, now: now, log: logger.OrNop(log)}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.OneOffBooking, error) {
	return s.store.Bookings.GetByID(ctx, id)
}

// ListForVenue returns the venue's bookings, limited to date when it is set.
func (s *Service) ListForVenue(ctx context.Context, venueID int64, date *time.Time) ([]domain.OneOffBooking, error) {
	if _, err := s.store.Venues.GetByID(ctx, venueID); err != nil {
		return nil, err
	}
	if date != nil {
		return s.store.Bookings.FindForVenueAndDate(ctx, venueID, *date)
	}
	return s.store.Bookings.FindAllForVenue(ctx, venueID)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.OneOffBooking, error) {
	end := in.Start.Add(time.Hour)
	if in.End != nil {
		end = *in.End
	}
	b := &domain.OneOffBooking{
		VenueID:     in.VenueID,
		Date:        domain.DateOf(in.Date),
		StartTime:   in.Start,
		EndTime:     end,
		ClientPhone: in.ClientPhone,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		venue, err := tx.Venues.GetByID(ctx, in.VenueID)
		if err != nil {
			return err
		}
		if err := s.admit(ctx, tx, venue, b, occupancy.Exclusion{}); err != nil {
			return err
		}
		b.Price = priceFor(venue, b.StartTime, b.EndTime)
		if in.Price != nil {
			b.Price = *in.Price
		}
		return tx.Bookings.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("venue_id", b.VenueID),
		zap.String("date", b.Date.Format(domain.DateLayout)),
		zap.Stringer("start", b.StartTime),
	)
	s.signals.VenueChanged(b.VenueID)
	return b, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.OneOffBooking, error) {
	var b *domain.OneOffBooking
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		b, err = tx.Bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		venue, err := tx.Venues.GetByID(ctx, b.VenueID)
		if err != nil {
			return err
		}

		if in.Date != nil {
			b.Date = domain.DateOf(*in.Date)
		}
		if in.Start != nil {
			b.StartTime = *in.Start
			b.EndTime = in.Start.Add(time.Hour)
		}
		if in.End != nil {
			b.EndTime = *in.End
		}
		if in.ClientPhone != nil {
			b.ClientPhone = *in.ClientPhone
		}
		if err := s.admit(ctx, tx, venue, b, occupancy.Exclusion{BookingID: b.ID}); err != nil {
			return err
		}
		if in.Price != nil {
			b.Price = *in.Price
		} else if in.Start != nil || in.End != nil {
			b.Price = priceFor(venue, b.StartTime, b.EndTime)
		}
		return tx.Bookings.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking updated", zap.Int64("booking_id", b.ID), zap.Int64("venue_id", b.VenueID))
	s.signals.VenueChanged(b.VenueID)
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	var venueID int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		venueID = b.VenueID
		_, err = tx.Bookings.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("booking deleted", zap.Int64("booking_id", id), zap.Int64("venue_id", venueID))
	s.signals.VenueChanged(venueID)
	return nil
}

// admit runs the checks every booking write goes through: range and opening
// hours, not already over, and no overlap with the venue's other occupancy.
func (s *Service) admit(ctx context.Context, tx *repository.Store, venue *domain.Venue, b *domain.OneOffBooking, ex occupancy.Exclusion) error {
	if err := schedule.ValidateHours(venue.Hours(), b.StartTime, b.EndTime); err != nil {
		return err
	}
	if schedule.Elapsed(b.Date, b.StartTime, b.EndTime, s.now()) {
		return &domain.PastError{Date: b.Date, End: b.EndTime}
	}
	slot := occupancy.Slot{Date: b.Date, Start: b.StartTime, End: b.EndTime}
	return occupancy.NewChecker(tx).Check(ctx, venue.ID, slot, ex)
}

func priceFor(venue *domain.Venue, start, end domain.Clock) float64 {
	hours := schedule.Duration(start, end).Hours()
	return math.Round(venue.HourlyPrice*hours*100) / 100
}
