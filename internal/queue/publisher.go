package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends BookingEvents to the booking.events queue.  Each
// publish opens its own connection so a broker outage never leaves a
// stale channel behind; failures are logged and returned so the caller
// can ignore them.
type Publisher struct {
	url         string
	log         *zap.Logger
	dialTimeout time.Duration
}

// dialTimeout bounds the TCP connect and the AMQP handshake.  Publishing
// runs on the request path, so an unreachable broker must fail fast.
const dialTimeout = 2 * time.Second

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log, dialTimeout: dialTimeout}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("type", ev.Type), zap.Error(err))
		return err
	}
	p.log.Debug("rabbitmq: published", zap.String("type", ev.Type), zap.String("event_id", ev.EventID))
	return nil
}

// declare makes sure the durable queue exists.  It is idempotent.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(QueueName, true, false, false, false, nil)
	return err
}
