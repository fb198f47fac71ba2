package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/events-booking/internal/queue"
)

type fakeEmails struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeEmails) SendWithContext(_ context.Context, p *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "msg_1"}, nil
}

func sampleEvent() queue.BookingEvent {
	return queue.BookingEvent{
		Type:        queue.TypeRegistrationCreated,
		EventID:     "e1",
		EventTitle:  "Jazz <night>",
		EventDate:   "2026-04-10",
		EventTime:   "19:30",
		Location:    "Main hall",
		Description: "An evening of **music**.\n<script>alert(1)</script>",
		UserName:    "Ana",
		UserEmail:   "ana@example.com",
		SeatsHeld:   2,
	}
}

func TestConfirmationRendersMarkdownSafely(t *testing.T) {
	t.Parallel()

	subject, body, err := Confirmation(sampleEvent())
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if subject != "Booking confirmed: Jazz <night>" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "<strong>music</strong>") {
		t.Fatalf("expected rendered markdown in body, got %s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected raw html to be dropped, got %s", body)
	}
	if !strings.Contains(body, "Jazz &lt;night&gt;") {
		t.Fatalf("expected escaped title, got %s", body)
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	t.Parallel()

	fake := &fakeEmails{}
	s := &ResendSender{emails: fake, from: "Events <events@example.com>", log: zap.NewNop()}

	if err := s.SendBookingConfirmation(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if fake.got == nil || len(fake.got.To) != 1 || fake.got.To[0] != "ana@example.com" {
		t.Fatalf("unexpected request %+v", fake.got)
	}
	if fake.got.From != "Events <events@example.com>" {
		t.Fatalf("unexpected from %q", fake.got.From)
	}

	fake.err = errors.New("rate limited")
	if err := s.SendBookingConfirmation(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error")
	}
}
