package syncgateway

import (
	"context"

	"go.uber.org/zap"

	"venuebook/internal/domain"
	"venuebook/internal/logger"
)

// Publisher turns index changes into Events and hands them to a sink.
type Publisher struct {
	sink NotificationSink
	log  *zap.Logger
}

func NewPublisher(sink NotificationSink, log *zap.Logger) *Publisher {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Publisher{sink: sink, log: logger.OrNop(log)}
}

// Publish sends one change. Failures come back as *domain.SyncError for the
// caller to log; nothing is retried here.
func (p *Publisher) Publish(ctx context.Context, action domain.ChangeAction, entry domain.UnavailabilityEntry, ownerPhone string) error {
	ev := NewEvent(action, entry, ownerPhone)
	if err := p.sink.Send(ctx, ev); err != nil {
		publishedTotal.WithLabelValues(string(action), "error").Inc()
		return &domain.SyncError{Op: "publish", Err: err}
	}
	publishedTotal.WithLabelValues(string(action), "ok").Inc()
	p.log.Debug("sync event published",
		zap.String("action", string(action)),
		zap.String("stable_id", ev.StableID),
		zap.Int64("venue_id", ev.VenueID),
	)
	return nil
}
