package app

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cimillas/event-horizon/internal/clock"
	"github.com/cimillas/event-horizon/internal/domain"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEventSummary(ctx context.Context, eventID string) (domain.EventSummary, error)
	ListEventSummaries(ctx context.Context, includeInactive bool) ([]domain.EventSummary, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	SumActiveAttendees(ctx context.Context, eventID string) (int, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	DeleteEvent(ctx context.Context, eventID string) error
}

type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{
		repo:  repo,
		clock: clk,
	}
}

type EventInput struct {
	Name         string
	Description  string
	Location     string
	MaxAttendees int
	StartsAt     time.Time
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ErrEventNameRequired
	}
	if in.MaxAttendees <= 0 || in.MaxAttendees > domain.MaxCount {
		return domain.ErrInvalidMaxAttendees
	}
	if in.StartsAt.IsZero() {
		return domain.ErrStartsAtRequired
	}
	return nil
}

type CreateEventInput struct {
	Organizer domain.Principal
	EventInput
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (_ domain.Event, err error) {
	ctx, span := startSpan(ctx, "EventService.CreateEvent")
	defer endSpan(span, &err)

	if err := in.validate(); err != nil {
		return domain.Event{}, err
	}
	if in.Organizer.ID == "" {
		return domain.Event{}, domain.ErrForbidden
	}

	now := s.clock.Now()
	event := domain.Event{
		ID:           newID(),
		OrganizerID:  in.Organizer.ID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Location:     in.Location,
		MaxAttendees: in.MaxAttendees,
		StartsAt:     in.StartsAt.UTC(),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (_ domain.EventSummary, err error) {
	ctx, span := startSpan(ctx, "EventService.GetEvent", attribute.String("event.id", eventID))
	defer endSpan(span, &err)

	if err := checkID(eventID); err != nil {
		return domain.EventSummary{}, err
	}
	return s.repo.GetEventSummary(ctx, eventID)
}

func (s *EventService) ListEvents(ctx context.Context, includeInactive bool) (_ []domain.EventSummary, err error) {
	ctx, span := startSpan(ctx, "EventService.ListEvents", attribute.Bool("include_inactive", includeInactive))
	defer endSpan(span, &err)

	return s.repo.ListEventSummaries(ctx, includeInactive)
}

type UpdateEventInput struct {
	Principal domain.Principal
	EventID   string
	EventInput
}

// UpdateEvent replaces the editable fields of an event. The new maximum may not
// drop below the attendees already registered.
func (s *EventService) UpdateEvent(ctx context.Context, in UpdateEventInput) (_ domain.EventSummary, err error) {
	ctx, span := startSpan(ctx, "EventService.UpdateEvent", attribute.String("event.id", in.EventID))
	defer endSpan(span, &err)

	if err := checkID(in.EventID); err != nil {
		return domain.EventSummary{}, err
	}
	if err := in.validate(); err != nil {
		return domain.EventSummary{}, err
	}

	now := s.clock.Now()
	var result domain.EventSummary

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !in.Principal.CanManageEvent(event) {
			return domain.ErrForbidden
		}

		total, err := s.repo.SumActiveAttendees(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if in.MaxAttendees < total {
			return domain.ErrCapacityBelowTotal
		}

		event.Name = strings.TrimSpace(in.Name)
		event.Description = in.Description
		event.Location = in.Location
		event.MaxAttendees = in.MaxAttendees
		event.StartsAt = in.StartsAt.UTC()
		event.UpdatedAt = now

		if err := s.repo.UpdateEvent(txCtx, event); err != nil {
			return err
		}
		result = domain.EventSummary{Event: event, RegisteredTotal: total}
		return nil
	})
	if err != nil {
		return domain.EventSummary{}, err
	}
	return result, nil
}

// CancelEvent deactivates an event. Registrations are kept; new ones are refused.
func (s *EventService) CancelEvent(ctx context.Context, principal domain.Principal, eventID string) (_ domain.EventSummary, err error) {
	ctx, span := startSpan(ctx, "EventService.CancelEvent", attribute.String("event.id", eventID))
	defer endSpan(span, &err)

	if err := checkID(eventID); err != nil {
		return domain.EventSummary{}, err
	}

	now := s.clock.Now()
	var result domain.EventSummary

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if !principal.CanManageEvent(event) {
			return domain.ErrForbidden
		}
		total, err := s.repo.SumActiveAttendees(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Active {
			event.Active = false
			event.UpdatedAt = now
			if err := s.repo.UpdateEvent(txCtx, event); err != nil {
				return err
			}
		}
		result = domain.EventSummary{Event: event, RegisteredTotal: total}
		return nil
	})
	if err != nil {
		return domain.EventSummary{}, err
	}
	return result, nil
}

// DeleteEvent removes an event that has no active registrations.
func (s *EventService) DeleteEvent(ctx context.Context, principal domain.Principal, eventID string) (err error) {
	ctx, span := startSpan(ctx, "EventService.DeleteEvent", attribute.String("event.id", eventID))
	defer endSpan(span, &err)

	if err := checkID(eventID); err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if !principal.CanManageEvent(event) {
			return domain.ErrForbidden
		}
		total, err := s.repo.SumActiveAttendees(txCtx, eventID)
		if err != nil {
			return err
		}
		if total > 0 {
			return domain.ErrEventHasRegistrations
		}
		return s.repo.DeleteEvent(txCtx, eventID)
	})
}
