package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/queue"
)

// emailSender is the part of the Resend client used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends booking mails via the Resend API.  It implements
// queue.Mailer.
type ResendSender struct {
	emails emailSender
	from   string
	log    *zap.Logger
}

var _ queue.Mailer = (*ResendSender)(nil)

// NewResendSender creates a ResendSender with the given API key and
// from address.
func NewResendSender(apiKey, from string, log *zap.Logger) *ResendSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResendSender{emails: resend.NewClient(apiKey).Emails, from: from, log: log}
}

// SendBookingConfirmation mails the booking user a confirmation for ev.
func (s *ResendSender) SendBookingConfirmation(ctx context.Context, ev queue.BookingEvent) error {
	subject, html, err := Confirmation(ev)
	if err != nil {
		return err
	}
	sent, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{ev.UserEmail},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		s.log.Error("resend send failed", zap.String("event_id", ev.EventID), zap.Error(err))
		return fmt.Errorf("resend send failed: %w", err)
	}
	s.log.Info("confirmation mail sent",
		zap.String("message_id", sent.Id),
		zap.String("event_id", ev.EventID),
		zap.String("user_id", ev.UserID))
	return nil
}
