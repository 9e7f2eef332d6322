package syncgateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"venuebook/internal/config"
)

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	log.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink appends events to a Redis stream, trimmed to roughly maxLen
// entries.
type RedisStreamSink struct {
	client streamAdder
	stream string
	maxLen int64
}

func NewRedisStreamSink(client streamAdder, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStreamSink) Send(ctx context.Context, ev Event) error {
	payload, err := ev.Marshal()
	if err != nil {
		return err
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]interface{}{
			"action":    string(ev.Action),
			"stable_id": ev.StableID,
			"venue_id":  strconv.FormatInt(ev.VenueID, 10),
			"payload":   string(payload),
		},
	}).Err()
}
