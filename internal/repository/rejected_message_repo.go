package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/domain"
)

type RejectedMessageRepository struct {
	db *gorm.DB
}

func NewRejectedMessageRepository(db *gorm.DB) *RejectedMessageRepository {
	return &RejectedMessageRepository{db: db}
}

func (r *RejectedMessageRepository) Create(ctx context.Context, m *domain.RejectedSyncMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *RejectedMessageRepository) ListRecent(ctx context.Context, limit int) ([]domain.RejectedSyncMessage, error) {
	var out []domain.RejectedSyncMessage
	err := r.db.WithContext(ctx).Order("received_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// DeleteOlderThan removes messages received before cutoff and reports how
// many went.
func (r *RejectedMessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("received_at < ?", cutoff).Delete(&domain.RejectedSyncMessage{})
	return res.RowsAffected, res.Error
}
