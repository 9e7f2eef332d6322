package syncgateway

import (
	"context"
	"errors"
)

// NotificationSink delivers outbound events. Implementations must be safe for
// concurrent use.
type NotificationSink interface {
	Send(ctx context.Context, ev Event) error
}

// NoopSink is selected when outbound sync is disabled.
type NoopSink struct{}

func (NoopSink) Send(context.Context, Event) error { return nil }

// FanoutSink sends to every sink and joins their errors.
type FanoutSink []NotificationSink

func (f FanoutSink) Send(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Send(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
