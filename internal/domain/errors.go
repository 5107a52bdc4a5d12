package domain

import "errors"

var (
	ErrInvalidID              = errors.New("invalid id")
	ErrEventNotFound          = errors.New("event not found")
	ErrEventNameRequired      = errors.New("event name required")
	ErrStartsAtRequired       = errors.New("starts_at required")
	ErrInvalidMaxAttendees    = errors.New("max_attendees must be at least 1")
	ErrEventInactive          = errors.New("event is not active")
	ErrEventStarted           = errors.New("event has already started")
	ErrEventHasRegistrations  = errors.New("event has active registrations")
	ErrCapacityBelowTotal     = errors.New("max_attendees below registered total")
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrInvalidAttendeeCount   = errors.New("attendee_count must be at least 1")
	ErrCapacityExceeded       = errors.New("event capacity exceeded")
	ErrAlreadyRegistered      = errors.New("already registered for event")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency conflict")
	ErrForbidden              = errors.New("forbidden")
)
