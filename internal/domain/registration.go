package domain

import "time"

type RegistrationStatus string

const (
	RegistrationStatusActive   RegistrationStatus = "active"
	RegistrationStatusCanceled RegistrationStatus = "canceled"
)

// Registration reserves AttendeeCount places at an event for one registrant.
// Only active registrations count toward the event's capacity.
type Registration struct {
	ID             string
	EventID        string
	RegistrantID   string
	AttendeeCount  int
	Status         RegistrationStatus
	IdempotencyKey string
	CreatedAt      time.Time
	CanceledAt     *time.Time
}

func (r Registration) IsActive() bool {
	return r.Status == RegistrationStatusActive
}
