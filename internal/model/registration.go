package model

import "time"

// MaxSeatsPerUser caps the seats a single user may hold on one event.
const MaxSeatsPerUser = 4

// Registration records the seats a user holds on an event.  There is
// at most one registration per (EventID, UserID); repeat bookings are
// merged into SeatsBooked.
//
// Fields:
//  ID           – UUID primary key.
//  EventID      – booked event.
//  UserID       – booking user.
//  UserName     – user display name at booking time.
//  UserEmail    – user email at booking time.
//  SeatsBooked  – seats held (> 0).
//  RegisteredAt – when the first seat was booked.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	SeatsBooked  int       `json:"seats_booked"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationWithEvent is a registration joined with its event, used
// by the "my registrations" listing.
type RegistrationWithEvent struct {
	Registration
	Event Event `json:"event"`
}

// Stats aggregates counters shown on the admin dashboard.
type Stats struct {
	TotalEvents        int `json:"total_events"`
	TotalUsers         int `json:"total_users"`
	TotalRegistrations int `json:"total_registrations"`
	TotalSeatsBooked   int `json:"total_seats_booked"`
	UpcomingEvents     int `json:"upcoming_events"`
}
