package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Mailer sends the confirmation mail for a new registration.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, ev BookingEvent) error
}

// Consumer drains booking.events: every message is appended to an audit
// log file and, for new registrations, a confirmation mail is sent when
// a Mailer is configured.
type Consumer struct {
	url     string
	logPath string
	mailer  Mailer
	log     *zap.Logger
}

// NewConsumer builds a Consumer.  mailer may be nil.
func NewConsumer(url, logPath string, mailer Mailer, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, logPath: logPath, mailer: mailer, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff whenever the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("booking-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error("booking-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.  A mail failure is logged but does
// not fail the message: the audit line is already written.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := c.appendLine(FormatLine(ev)); err != nil {
		return err
	}
	if c.mailer != nil && ev.Type == TypeRegistrationCreated && ev.UserEmail != "" {
		if err := c.mailer.SendBookingConfirmation(ctx, ev); err != nil {
			c.log.Warn("booking-consumer: confirmation mail failed",
				zap.String("event_id", ev.EventID),
				zap.String("user_id", ev.UserID),
				zap.Error(err))
		}
	}
	return nil
}

func (c *Consumer) appendLine(line string) error {
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev BookingEvent) string {
	switch ev.Type {
	case TypeEventDeleted:
		return fmt.Sprintf("[%s] Event deleted | event_id=%s | title=%q | date=%s | registrations_removed=%d\n",
			ev.OccurredAt, ev.EventID, ev.EventTitle, ev.EventDate, ev.Removed)
	case TypeRegistrationCancelled:
		return fmt.Sprintf("[%s] Registration cancelled | event_id=%s | user_id=%s | title=%q | seats=%d | available=%d\n",
			ev.OccurredAt, ev.EventID, ev.UserID, ev.EventTitle, ev.Seats, ev.AvailableSeats)
	default:
		return fmt.Sprintf("[%s] Registration confirmed | event_id=%s | user_id=%s | title=%q | date=%s %s | seats=%d | held=%d | available=%d\n",
			ev.OccurredAt, ev.EventID, ev.UserID, ev.EventTitle, ev.EventDate, ev.EventTime, ev.Seats, ev.SeatsHeld, ev.AvailableSeats)
	}
}
