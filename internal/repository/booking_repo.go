package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/domain"
)

// BookingRepository stores one-off bookings.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.OneOffBooking, error) {
	var b domain.OneOffBooking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, mapReadError(err, "booking", id)
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.OneOffBooking) error {
	return mapWriteError(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.OneOffBooking) error {
	return mapWriteError(r.db.WithContext(ctx).Save(b).Error)
}

// Delete removes a booking and reports whether a row existed.
func (r *BookingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&domain.OneOffBooking{}, id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *BookingRepository) FindAllForVenue(ctx context.Context, venueID int64) ([]domain.OneOffBooking, error) {
	var out []domain.OneOffBooking
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Order("date ASC, start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *BookingRepository) FindForVenueAndDate(ctx context.Context, venueID int64, date time.Time) ([]domain.OneOffBooking, error) {
	var out []domain.OneOffBooking
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND date = ?", venueID, domain.DateOf(date)).
		Order("start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *BookingRepository) FindForVenueAndDateRange(ctx context.Context, venueID int64, from, to time.Time) ([]domain.OneOffBooking, error) {
	var out []domain.OneOffBooking
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND date >= ? AND date <= ?", venueID, domain.DateOf(from), domain.DateOf(to)).
		Order("date ASC, start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}
