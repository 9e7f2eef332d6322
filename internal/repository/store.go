package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Store bundles the repositories sharing one connection or transaction.
type Store struct {
	db *gorm.DB

	Venues         *VenueRepository
	Bookings       *BookingRepository
	Subscriptions  *SubscriptionRepository
	Unavailability *UnavailabilityRepository
	Rejected       *RejectedMessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Venues:         NewVenueRepository(db),
		Bookings:       NewBookingRepository(db),
		Subscriptions:  NewSubscriptionRepository(db),
		Unavailability: NewUnavailabilityRepository(db),
		Rejected:       NewRejectedMessageRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn with a Store bound to a single transaction. Nested calls
// use savepoints.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error, opts ...*sql.TxOptions) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	}, opts...)
}
