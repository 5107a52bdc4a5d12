package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/event-horizon/internal/domain"
)

type EventRepository struct {
	store
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{store: store{pool: pool}}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, organizer_id, name, description, location, max_attendees, starts_at, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.OrganizerID,
		event.Name,
		event.Description,
		event.Location,
		event.MaxAttendees,
		event.StartsAt,
		event.Active,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err, "events_max_attendees_check") {
			return domain.ErrInvalidMaxAttendees
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

const summaryQuery = `
SELECT e.id, e.organizer_id, e.name, e.description, e.location, e.max_attendees,
	e.starts_at, e.active, e.created_at, e.updated_at,
	COALESCE(SUM(r.attendee_count) FILTER (WHERE r.status = 'active'), 0)
FROM events e
LEFT JOIN registrations r ON r.event_id = e.id`

func (r *EventRepository) GetEventSummary(ctx context.Context, eventID string) (domain.EventSummary, error) {
	query := summaryQuery + `
WHERE e.id = $1
GROUP BY e.id`

	var total int
	e, err := scanEvent(r.queryRow(ctx, query, eventID), &total)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.EventSummary{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EventSummary{}, domain.ErrEventNotFound
		}
		return domain.EventSummary{}, fmt.Errorf("get event summary: %w", err)
	}
	return domain.EventSummary{Event: e, RegisteredTotal: total}, nil
}

func (r *EventRepository) ListEventSummaries(ctx context.Context, includeInactive bool) ([]domain.EventSummary, error) {
	query := summaryQuery + `
WHERE e.active OR $1
GROUP BY e.id
ORDER BY e.starts_at ASC, e.created_at ASC`

	rows, err := r.query(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.EventSummary
	for rows.Next() {
		var total int
		e, err := scanEvent(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, domain.EventSummary{Event: e, RegisteredTotal: total})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET name = $2, description = $3, location = $4, max_attendees = $5, starts_at = $6, active = $7, updated_at = $8
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		event.ID,
		event.Name,
		event.Description,
		event.Location,
		event.MaxAttendees,
		event.StartsAt,
		event.Active,
		event.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err, "events_max_attendees_total") {
			return domain.ErrCapacityBelowTotal
		}
		if isCheckViolation(err, "events_max_attendees_check") {
			return domain.ErrInvalidMaxAttendees
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) error {
	tag, err := r.exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
