// Package service holds the booking rules: seat accounting, the event
// lifecycle, read queries, admin actions and authentication.  Every
// operation takes an explicit model.Session for the caller; nothing is
// read from ambient state.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/queue"
)

// Publisher emits booking events after a write commits.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

type options struct {
	now func() time.Time
	pub Publisher
	log *zap.Logger
}

// Option configures a service.
type Option func(*options)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher sets the broker publisher.  Publishing is best effort:
// failures are logged and never fail the request.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.pub = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now: func() time.Time { return time.Now().UTC() },
		pub: nopPublisher{},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(ctx context.Context, ev queue.BookingEvent) {
	ev.OccurredAt = o.now().UTC().Format(time.RFC3339)
	if err := o.pub.Publish(ctx, ev); err != nil {
		o.log.Warn("publish booking event failed",
			zap.String("type", ev.Type),
			zap.String("event_id", ev.EventID),
			zap.Error(err))
	}
}
