package syncgateway

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"venuebook/internal/domain"
)

type ownerDirectory interface {
	FindOwnerByPhone(ctx context.Context, phone string) (*domain.Owner, error)
	FindVenuesByOwner(ctx context.Context, ownerID int64) ([]domain.Venue, error)
}

// venueResolver maps an owner's phone number to their venue for messages
// that carry no venue id. Concurrent lookups of one phone share a query.
type venueResolver struct {
	owners ownerDirectory
	group  singleflight.Group
	log    *zap.Logger
}

func (r *venueResolver) Resolve(ctx context.Context, phone string) (int64, error) {
	v, err, _ := r.group.Do(phone, func() (interface{}, error) {
		owner, err := r.owners.FindOwnerByPhone(ctx, phone)
		if errors.Is(err, domain.ErrNotFound) {
			return int64(0), &domain.ParseError{Field: "ownerPhone", Reason: "no owner registered with this phone"}
		}
		if err != nil {
			return int64(0), err
		}
		venues, err := r.owners.FindVenuesByOwner(ctx, owner.ID)
		if err != nil {
			return int64(0), err
		}
		switch len(venues) {
		case 0:
			return int64(0), &domain.ParseError{Field: "ownerPhone", Reason: "owner has no venue"}
		case 1:
		default:
			r.log.Warn("owner has several venues, using the first",
				zap.Int64("owner_id", owner.ID),
				zap.Int("venues", len(venues)),
			)
		}
		return venues[0].ID, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
