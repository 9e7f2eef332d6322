package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/domain"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func orderSlots(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, start_time ASC, id ASC")
}

// GetByID loads a subscription with its slots ordered by date and start time.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).Preload("Slots", orderSlots).Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, mapReadError(err, "subscription", id)
	}
	return &sub, nil
}

// Create inserts the subscription together with its slots.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return mapWriteError(r.db.WithContext(ctx).Create(sub).Error)
}

// Update saves the subscription row only; slots are managed separately.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	return r.db.WithContext(ctx).Omit("Slots").Save(sub).Error
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	if err := r.DeleteSlots(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Subscription{}).Error
}

func (r *SubscriptionRepository) DeleteSlots(ctx context.Context, subscriptionID string) error {
	return r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).Delete(&domain.SubscriptionSlot{}).Error
}

func (r *SubscriptionRepository) DeleteSlotsByID(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.SubscriptionSlot{}).Error
}

func (r *SubscriptionRepository) CreateSlots(ctx context.Context, slots []domain.SubscriptionSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *SubscriptionRepository) UpdateSlot(ctx context.Context, slot *domain.SubscriptionSlot) error {
	return r.db.WithContext(ctx).Model(slot).Select("weekday", "date", "start_time", "end_time", "hourly_price").Updates(slot).Error
}

func (r *SubscriptionRepository) slotsForVenue(ctx context.Context, venueID int64) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.SubscriptionSlot{}).
		Select("subscription_slots.*, subscriptions.venue_id AS venue_id").
		Joins("JOIN subscriptions ON subscriptions.id = subscription_slots.subscription_id").
		Where("subscriptions.venue_id = ?", venueID)
}

// FindSlotsForVenue returns every slot of every subscription on the venue.
func (r *SubscriptionRepository) FindSlotsForVenue(ctx context.Context, venueID int64) ([]domain.SubscriptionSlot, error) {
	var out []domain.SubscriptionSlot
	err := r.slotsForVenue(ctx, venueID).
		Order("subscription_slots.date ASC, subscription_slots.start_time ASC, subscription_slots.id ASC").
		Find(&out).Error
	return out, err
}

// FindSlotsForVenueAndDate returns the venue's slots on date, leaving out the
// slots of excludeSubscriptionID when it is set.
func (r *SubscriptionRepository) FindSlotsForVenueAndDate(ctx context.Context, venueID int64, date time.Time, excludeSubscriptionID string) ([]domain.SubscriptionSlot, error) {
	q := r.slotsForVenue(ctx, venueID).Where("subscription_slots.date = ?", domain.DateOf(date))
	if excludeSubscriptionID != "" {
		q = q.Where("subscription_slots.subscription_id <> ?", excludeSubscriptionID)
	}
	var out []domain.SubscriptionSlot
	err := q.Order("subscription_slots.start_time ASC").Find(&out).Error
	return out, err
}

func (r *SubscriptionRepository) ListForVenue(ctx context.Context, venueID int64) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := r.db.WithContext(ctx).
		Preload("Slots", orderSlots).
		Where("venue_id = ?", venueID).
		Order("start_date ASC").
		Find(&out).Error
	return out, err
}
