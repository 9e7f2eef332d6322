package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/domain"
)

// UnavailabilityRepository stores the derived unavailability index.
type UnavailabilityRepository struct {
	db *gorm.DB
}

func NewUnavailabilityRepository(db *gorm.DB) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: db}
}

// FindAllForVenue returns the venue's entries in insertion order.
func (r *UnavailabilityRepository) FindAllForVenue(ctx context.Context, venueID int64) ([]domain.UnavailabilityEntry, error) {
	var out []domain.UnavailabilityEntry
	err := r.db.WithContext(ctx).Where("venue_id = ?", venueID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *UnavailabilityRepository) FindForVenueAndDate(ctx context.Context, venueID int64, date time.Time) ([]domain.UnavailabilityEntry, error) {
	var out []domain.UnavailabilityEntry
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND date = ?", venueID, domain.DateOf(date)).
		Order("start_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

// FindForVenueAndDateRange returns entries dated within [from, to]. A zero
// bound leaves that side open.
func (r *UnavailabilityRepository) FindForVenueAndDateRange(ctx context.Context, venueID int64, from, to time.Time) ([]domain.UnavailabilityEntry, error) {
	q := r.db.WithContext(ctx).Where("venue_id = ?", venueID)
	if !from.IsZero() {
		q = q.Where("date >= ?", domain.DateOf(from))
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", domain.DateOf(to))
	}
	var out []domain.UnavailabilityEntry
	err := q.Order("date ASC, start_time ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *UnavailabilityRepository) GetByStableID(ctx context.Context, stableID string) (*domain.UnavailabilityEntry, error) {
	var e domain.UnavailabilityEntry
	if err := r.db.WithContext(ctx).Where("stable_id = ?", stableID).First(&e).Error; err != nil {
		return nil, mapReadError(err, "unavailability entry", stableID)
	}
	return &e, nil
}

// Create inserts e, returning ErrDuplicate when its stable id or source
// identity already exists.
func (r *UnavailabilityRepository) Create(ctx context.Context, e *domain.UnavailabilityEntry) error {
	return mapWriteError(r.db.WithContext(ctx).Create(e).Error)
}

func (r *UnavailabilityRepository) Update(ctx context.Context, e *domain.UnavailabilityEntry) error {
	return mapWriteError(r.db.WithContext(ctx).Save(e).Error)
}

func (r *UnavailabilityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.UnavailabilityEntry{}, id).Error
}
