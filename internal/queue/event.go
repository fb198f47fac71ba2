// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and the background consumer.
package queue

// Message types carried in BookingEvent.Type.
const (
	TypeRegistrationCreated   = "registration.created"
	TypeRegistrationCancelled = "registration.cancelled"
	TypeEventDeleted          = "event.deleted"
)

// QueueName is the durable queue every booking event is routed to.
const QueueName = "booking.events"

// BookingEvent is published after a registration or deletion commits.
// It contains enough information for downstream consumers to log or
// notify without querying the primary database.
type BookingEvent struct {
	Type           string `json:"type"`
	EventID        string `json:"event_id"`
	EventTitle     string `json:"event_title"`
	EventDate      string `json:"event_date"`
	EventTime      string `json:"event_time"`
	Location       string `json:"location"`
	Description    string `json:"description,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	UserName       string `json:"user_name,omitempty"`
	UserEmail      string `json:"user_email,omitempty"`
	Seats          int    `json:"seats,omitempty"`
	SeatsHeld      int    `json:"seats_held,omitempty"`
	AvailableSeats int    `json:"available_seats"`
	Removed        int    `json:"removed_registrations,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}
