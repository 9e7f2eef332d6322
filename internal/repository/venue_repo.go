package repository

import (
	"context"

	"gorm.io/gorm"

	"venuebook/internal/domain"
)

type VenueRepository struct {
	db *gorm.DB
}

func NewVenueRepository(db *gorm.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*domain.Venue, error) {
	var v domain.Venue
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, mapReadError(err, "venue", id)
	}
	return &v, nil
}

func (r *VenueRepository) Create(ctx context.Context, v *domain.Venue) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// ListIDs returns every venue id in ascending order.
func (r *VenueRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.Venue{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *VenueRepository) CreateOwner(ctx context.Context, o *domain.Owner) error {
	return mapWriteError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *VenueRepository) FindOwnerByPhone(ctx context.Context, phone string) (*domain.Owner, error) {
	var o domain.Owner
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&o).Error; err != nil {
		return nil, mapReadError(err, "owner", phone)
	}
	return &o, nil
}

func (r *VenueRepository) FindVenuesByOwner(ctx context.Context, ownerID int64) ([]domain.Venue, error) {
	var venues []domain.Venue
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&venues).Error
	return venues, err
}

// OwnerPhone returns the phone of the venue's owner, or "" when unknown.
func (r *VenueRepository) OwnerPhone(ctx context.Context, venueID int64) (string, error) {
	var phones []string
	err := r.db.WithContext(ctx).
		Table("owners").
		Joins("JOIN venues ON venues.owner_id = owners.id").
		Where("venues.id = ?", venueID).
		Limit(1).
		Pluck("owners.phone", &phones).Error
	if err != nil || len(phones) == 0 {
		return "", err
	}
	return phones[0], nil
}
