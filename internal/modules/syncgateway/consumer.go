package syncgateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"venuebook/internal/domain"
	"venuebook/internal/logger"
	"venuebook/internal/repository"
)

// Consumer applies remote changes to the index, keyed by stable id.
type Consumer struct {
	store    *repository.Store
	resolver *venueResolver
	now      func() time.Time
	log      *zap.Logger
}

func NewConsumer(store *repository.Store, log *zap.Logger) *Consumer {
	log = logger.OrNop(log)
	return &Consumer{
		store:    store,
		resolver: &venueResolver{owners: store.Venues, log: log},
		now:      time.Now,
		log:      log,
	}
}

// Handle decodes and applies one message. A nil error means the message is
// finished with, either applied or rejected for good, and can be acked.
func (c *Consumer) Handle(ctx context.Context, messageID string, raw []byte) error {
	in, err := Decode(raw)
	if err == nil {
		err = c.Apply(ctx, in)
	}

	action := string(in.Action)
	if action == "" {
		action = "unknown"
	}
	var perr *domain.ParseError
	switch {
	case err == nil:
		consumedTotal.WithLabelValues(action, "ok").Inc()
		return nil
	case errors.As(err, &perr):
		consumedTotal.WithLabelValues(action, "rejected").Inc()
		c.reject(ctx, messageID, raw, perr)
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
		consumedTotal.WithLabelValues(action, "dropped").Inc()
		c.log.Warn("sync message dropped",
			zap.String("message_id", messageID),
			zap.String("stable_id", in.StableID),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil
	default:
		consumedTotal.WithLabelValues(action, "error").Inc()
		return &domain.SyncError{Op: "consume", Err: err}
	}
}

func (c *Consumer) reject(ctx context.Context, messageID string, raw []byte, perr *domain.ParseError) {
	c.log.Warn("sync message rejected",
		zap.String("message_id", messageID),
		zap.String("field", perr.Field),
		zap.String("reason", perr.Reason),
	)
	payload := datatypes.JSON(raw)
	if !json.Valid(raw) {
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			quoted = []byte(`""`)
		}
		payload = datatypes.JSON(quoted)
	}
	err := c.store.Rejected.Create(ctx, &domain.RejectedSyncMessage{
		MessageID:  messageID,
		Payload:    payload,
		Field:      perr.Field,
		Reason:     perr.Reason,
		ReceivedAt: c.now(),
	})
	if err != nil {
		c.log.Error("store rejected sync message", zap.String("message_id", messageID), zap.Error(err))
	}
}

// PruneRejected drops rejected messages older than retention.
func (c *Consumer) PruneRejected(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := c.store.Rejected.DeleteOlderThan(ctx, c.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.log.Info("rejected sync messages pruned", zap.Int64("deleted", n))
	}
	return n, nil
}

// Apply writes one decoded change. Created is ignored when the stable id is
// already indexed, updated fails with NotFound when it is not, and deleted of
// an unknown id does nothing.
func (c *Consumer) Apply(ctx context.Context, in Inbound) error {
	switch in.Action {
	case domain.ActionCreated:
		return c.create(ctx, in)
	case domain.ActionUpdated:
		return c.update(ctx, in)
	case domain.ActionDeleted:
		return c.delete(ctx, in)
	}
	return &domain.ParseError{Field: "action", Reason: fmt.Sprintf("unsupported action %q", in.Action)}
}

func (c *Consumer) create(ctx context.Context, in Inbound) error {
	venueID := in.VenueID
	if venueID == 0 {
		if in.OwnerPhone == "" {
			return &domain.ParseError{Field: "venueId", Reason: "neither a venue id nor an owner phone was sent"}
		}
		// Resolved outside the transaction: the store may run on one connection.
		id, err := c.resolver.Resolve(ctx, in.OwnerPhone)
		if err != nil {
			return err
		}
		venueID = id
	}

	kind := in.SourceKind
	if kind == "" {
		kind = domain.SourceOneOff
	}
	date := domain.DateOf(*in.Date)
	end := in.Start.Add(time.Hour)
	if in.End != nil {
		end = *in.End
	}
	desc := in.Description
	if desc == "" && kind == domain.SourceOneOff {
		desc = domain.OneOffDescription
	}

	return c.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Venues.GetByID(ctx, venueID); err != nil {
			return err
		}
		_, err := tx.Unavailability.GetByStableID(ctx, in.StableID)
		if err == nil {
			c.log.Info("sync entry already present, ignoring created", zap.String("stable_id", in.StableID))
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		sourceID := in.SourceID
		if kind == domain.SourceOneOff && (in.PayerPhone != "" || in.Price != nil) {
			b := &domain.OneOffBooking{
				VenueID:     venueID,
				Date:        date,
				StartTime:   *in.Start,
				EndTime:     end,
				ClientPhone: in.PayerPhone,
			}
			if in.Price != nil {
				b.Price = *in.Price
			}
			if err := tx.Bookings.Create(ctx, b); err != nil {
				return err
			}
			if sourceID == nil {
				sourceID = &b.ID
			}
		}

		entry := &domain.UnavailabilityEntry{
			StableID:    in.StableID,
			VenueID:     venueID,
			Date:        date,
			StartTime:   *in.Start,
			EndTime:     end,
			SourceKind:  kind,
			SourceID:    sourceID,
			Description: desc,
		}
		if err := tx.Unavailability.Create(ctx, entry); err != nil {
			return duplicateAsParseError(err)
		}
		c.log.Info("sync entry created",
			zap.String("stable_id", entry.StableID),
			zap.Int64("venue_id", venueID),
			zap.String("date", date.Format(domain.DateLayout)),
		)
		return nil
	})
}

func (c *Consumer) update(ctx context.Context, in Inbound) error {
	return c.store.Transaction(ctx, func(tx *repository.Store) error {
		entry, err := tx.Unavailability.GetByStableID(ctx, in.StableID)
		if err != nil {
			return err
		}
		if in.VenueID != 0 && in.VenueID != entry.VenueID {
			if _, err := tx.Venues.GetByID(ctx, in.VenueID); err != nil {
				return err
			}
			entry.VenueID = in.VenueID
		}
		if in.Date != nil {
			entry.Date = domain.DateOf(*in.Date)
		}
		if in.Start != nil {
			entry.StartTime = *in.Start
		}
		if in.End != nil {
			entry.EndTime = *in.End
		}
		if in.SourceKind != "" {
			entry.SourceKind = in.SourceKind
		}
		if in.SourceID != nil {
			entry.SourceID = in.SourceID
		}
		if in.Description != "" {
			entry.Description = in.Description
		}
		if err := tx.Unavailability.Update(ctx, entry); err != nil {
			return duplicateAsParseError(err)
		}

		// The booking is the source of truth for the next reconcile, so it
		// has to move with the entry or the change would be reverted.
		if key, ok := entry.Key(); ok && key.Kind == domain.SourceOneOff {
			b, err := tx.Bookings.GetByID(ctx, key.ID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			b.VenueID = entry.VenueID
			b.Date = entry.Date
			b.StartTime, b.EndTime = entry.StartTime, entry.EndTime
			if in.PayerPhone != "" {
				b.ClientPhone = in.PayerPhone
			}
			if in.Price != nil {
				b.Price = *in.Price
			}
			if err := tx.Bookings.Update(ctx, b); err != nil {
				return err
			}
		}
		c.log.Info("sync entry updated", zap.String("stable_id", entry.StableID), zap.Int64("venue_id", entry.VenueID))
		return nil
	})
}

func (c *Consumer) delete(ctx context.Context, in Inbound) error {
	return c.store.Transaction(ctx, func(tx *repository.Store) error {
		entry, err := tx.Unavailability.GetByStableID(ctx, in.StableID)
		if errors.Is(err, domain.ErrNotFound) {
			c.log.Debug("sync entry already absent", zap.String("stable_id", in.StableID))
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Unavailability.Delete(ctx, entry.ID); err != nil {
			return err
		}
		if key, ok := entry.Key(); ok && key.Kind == domain.SourceOneOff {
			if _, err := tx.Bookings.Delete(ctx, key.ID); err != nil {
				return err
			}
		}
		c.log.Info("sync entry deleted", zap.String("stable_id", entry.StableID), zap.Int64("venue_id", entry.VenueID))
		return nil
	})
}

// duplicateAsParseError turns a unique violation into a rejection: the
// message points at a source that another entry already mirrors, and
// redelivering it would fail the same way.
func duplicateAsParseError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return &domain.ParseError{Field: "sourceId", Reason: "another entry already mirrors this source"}
	}
	return err
}

type streamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// StreamOptions selects the inbound stream and the consumer group identity.
type StreamOptions struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
	Count    int64
	// RetryEvery is how often entries left pending are read again.
	RetryEvery time.Duration
}

// Run consumes the stream until ctx is cancelled. Entries this consumer left
// pending are retried first and then every RetryEvery.
func (c *Consumer) Run(ctx context.Context, client streamReader, opts StreamOptions) error {
	if opts.Count <= 0 {
		opts.Count = 32
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.RetryEvery <= 0 {
		opts.RetryEvery = time.Minute
	}

	err := client.XGroupCreateMkStream(ctx, opts.Stream, opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", opts.Group, opts.Stream, err)
	}
	c.log.Info("sync consumer started",
		zap.String("stream", opts.Stream),
		zap.String("group", opts.Group),
		zap.String("consumer", opts.Consumer),
	)

	lastRetry := time.Time{}
	for ctx.Err() == nil {
		if time.Since(lastRetry) >= opts.RetryEvery {
			if err := c.drainPending(ctx, client, opts); err != nil && ctx.Err() == nil {
				c.log.Warn("read pending sync messages", zap.Error(err))
			}
			lastRetry = time.Now()
		}

		streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    opts.Group,
			Consumer: opts.Consumer,
			Streams:  []string{opts.Stream, ">"},
			Count:    opts.Count,
			Block:    opts.Block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.log.Warn("read sync stream", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, client, opts, msg)
			}
		}
	}
	c.log.Info("sync consumer stopped")
	return nil
}

// drainPending walks this consumer's pending entries once, oldest first.
func (c *Consumer) drainPending(ctx context.Context, client streamReader, opts StreamOptions) error {
	start := "0"
	for {
		streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    opts.Group,
			Consumer: opts.Consumer,
			Streams:  []string{opts.Stream, start},
			Count:    opts.Count,
			Block:    -1,
		}).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var last string
		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, client, opts, msg)
				last = msg.ID
			}
		}
		if last == "" {
			return nil
		}
		start = last
	}
}

func (c *Consumer) process(ctx context.Context, client streamReader, opts StreamOptions, msg redis.XMessage) {
	if err := c.Handle(ctx, msg.ID, messagePayload(msg)); err != nil {
		c.log.Error("sync message left pending", zap.String("message_id", msg.ID), zap.Error(err))
		return
	}
	if err := client.XAck(ctx, opts.Stream, opts.Group, msg.ID).Err(); err != nil {
		c.log.Warn("ack sync message", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

// messagePayload returns the "payload" field, or the entry's fields encoded
// as one object when the producer sent them flat.
func messagePayload(msg redis.XMessage) []byte {
	if p, ok := msg.Values["payload"].(string); ok {
		return []byte(p)
	}
	raw, err := json.Marshal(msg.Values)
	if err != nil {
		return nil
	}
	return raw
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
