package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cimillas/event-horizon/internal/domain"
)

type EventRepository struct {
	store
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{store: store{db: db.sqlDB}}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, organizer_id, name, description, location, max_attendees, starts_at, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.exec(ctx, stmt,
		event.ID,
		event.OrganizerID,
		event.Name,
		event.Description,
		event.Location,
		event.MaxAttendees,
		toMillis(event.StartsAt),
		event.Active,
		toMillis(event.CreatedAt),
		toMillis(event.UpdatedAt),
	)
	if err != nil {
		if constraintMentions(err, "check constraint failed", "max_attendees") {
			return domain.ErrInvalidMaxAttendees
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

const summaryQuery = `
SELECT e.id, e.organizer_id, e.name, e.description, e.location, e.max_attendees,
	e.starts_at, e.active, e.created_at, e.updated_at,
	COALESCE(SUM(CASE WHEN r.status = 'active' THEN r.attendee_count ELSE 0 END), 0)
FROM events e
LEFT JOIN registrations r ON r.event_id = e.id`

func (r *EventRepository) GetEventSummary(ctx context.Context, eventID string) (domain.EventSummary, error) {
	query := summaryQuery + `
WHERE e.id = ?
GROUP BY e.id`

	var total int
	e, err := scanEvent(r.queryRow(ctx, query, eventID), &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventSummary{}, domain.ErrEventNotFound
		}
		return domain.EventSummary{}, fmt.Errorf("get event summary: %w", err)
	}
	return domain.EventSummary{Event: e, RegisteredTotal: total}, nil
}

func (r *EventRepository) ListEventSummaries(ctx context.Context, includeInactive bool) ([]domain.EventSummary, error) {
	query := summaryQuery + `
WHERE e.active = 1 OR ?
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET name = ?, description = ?, location = ?, max_attendees = ?, starts_at = ?, active = ?, updated_at = ?
WHERE id = ?`

	res, err := r.exec(ctx, stmt,
		event.Name,
		event.Description,
		event.Location,
		event.MaxAttendees,
		toMillis(event.StartsAt),
		event.Active,
		toMillis(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		if constraintMentions(err, "events_max_attendees_total") {
			return domain.ErrCapacityBelowTotal
		}
		if constraintMentions(err, "check constraint failed", "max_attendees") {
			return domain.ErrInvalidMaxAttendees
		}
		return fmt.Errorf("update event: %w", err)
	}
	return expectOneRow(res, domain.ErrEventNotFound)
}

func (r *EventRepository) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := r.exec(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectOneRow(res, domain.ErrEventNotFound)
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
