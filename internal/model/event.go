package model

import (
	"strings"
	"time"
)

// EventStatus is the lifecycle state of an event.  Only OPEN and
// CONFIRMED events accept registrations.
type EventStatus string

const (
	StatusPlanned    EventStatus = "PLANNED"
	StatusOpen       EventStatus = "OPEN"
	StatusConfirmed  EventStatus = "CONFIRMED"
	StatusCanceled   EventStatus = "CANCELED"
	StatusSuccessful EventStatus = "SUCCESSFUL"
)

// ParseEventStatus normalizes s and reports whether it names a known
// status.
func ParseEventStatus(s string) (EventStatus, bool) {
	st := EventStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPlanned, StatusOpen, StatusConfirmed, StatusCanceled, StatusSuccessful:
		return st, true
	}
	return "", false
}

// Bookable reports whether registrations are permitted in this state.
func (s EventStatus) Bookable() bool {
	return s == StatusOpen || s == StatusConfirmed
}

// AdminSettable reports whether an admin may move an event into this
// state.  CANCELED and SUCCESSFUL are terminal states that are stored
// and reported but never entered through the status action.
func (s EventStatus) AdminSettable() bool {
	return s == StatusPlanned || s == StatusOpen || s == StatusConfirmed
}

// Supported languages for LocalizedText.
const (
	LangES = "es"
	LangEN = "en"
)

// LocalizedText maps a language code to text.
type LocalizedText map[string]string

// In returns the text for lang, falling back to English and then to
// any non-empty value.
func (t LocalizedText) In(lang string) string {
	if v := t[lang]; v != "" {
		return v
	}
	if v := t[LangEN]; v != "" {
		return v
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// Event represents a bookable event published by a provider.
// AvailableSeats is the authoritative seat counter; it is only ever
// changed through the store's conditional reserve/release operations.
//
// Fields:
//  ID             – UUID primary key.
//  Title          – bilingual title (es/en).
//  Description    – bilingual description (es/en).
//  Date           – calendar date, YYYY-MM-DD.
//  Time           – local time of day, HH:MM.
//  Location       – free text.
//  MaxSeats       – capacity, fixed at creation.
//  AvailableSeats – seats not yet booked (0..MaxSeats).
//  Status         – lifecycle state.
//  ProviderID     – owner user id.
//  ProviderName   – owner display name (denormalized).
//  ImageURL       – optional picture.
type Event struct {
	ID             string        `json:"id"`
	Title          LocalizedText `json:"title"`
	Description    LocalizedText `json:"description"`
	Date           string        `json:"date"`
	Time           string        `json:"time"`
	Location       string        `json:"location"`
	MaxSeats       int           `json:"max_seats"`
	AvailableSeats int           `json:"available_seats"`
	Status         EventStatus   `json:"status"`
	ProviderID     string        `json:"provider_id"`
	ProviderName   string        `json:"provider_name"`
	ImageURL       *string       `json:"image_url,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookedSeats returns the number of seats currently held by registrations.
func (e Event) BookedSeats() int { return e.MaxSeats - e.AvailableSeats }

// EventFilter narrows event listings.  Zero values mean "no filter".
// From and To are inclusive YYYY-MM-DD bounds.
type EventFilter struct {
	ProviderID string
	Status     EventStatus
	From       string
	To         string
}

// EventPatch carries the editable fields of an event.  Nil fields are
// left unchanged.
type EventPatch struct {
	Title       LocalizedText
	Description LocalizedText
	Date        *string
	Time        *string
	Location    *string
	ImageURL    *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil &&
		p.Time == nil && p.Location == nil && p.ImageURL == nil
}
