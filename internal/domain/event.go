package domain

import "time"

// Event is a scheduled gathering with a fixed attendee ceiling.
type Event struct {
	ID           string
	OrganizerID  string
	Name         string
	Description  string
	Location     string
	MaxAttendees int
	StartsAt     time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasStarted reports whether registration is closed because the event began.
func (e Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// EventSummary is an event together with its current registration load.
type EventSummary struct {
	Event
	RegisteredTotal int
}

// Remaining returns the number of attendee slots still open.
func (s EventSummary) Remaining() int {
	return Remaining(s.MaxAttendees, s.RegisteredTotal)
}
