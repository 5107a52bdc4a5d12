package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cimillas/event-horizon/internal/domain"
)

const eventColumns = `id, organizer_id, name, description, location, max_attendees, starts_at, active, created_at, updated_at`

func scanEvent(row pgx.Row, extra ...any) (domain.Event, error) {
	var e domain.Event
	dest := append([]any{
		&e.ID, &e.OrganizerID, &e.Name, &e.Description, &e.Location,
		&e.MaxAttendees, &e.StartsAt, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Event{}, err
	}
	e.StartsAt = e.StartsAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func (s store) getEvent(ctx context.Context, eventID string, lock bool) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	e, err := scanEvent(s.queryRow(ctx, query, eventID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s store) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return s.getEvent(ctx, eventID, false)
}

// GetEventForUpdate locks the event row until the surrounding transaction ends.
// Every writer touching an event's registrations takes this lock first.
func (s store) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return s.getEvent(ctx, eventID, true)
}

func (s store) SumActiveAttendees(ctx context.Context, eventID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(attendee_count), 0)
FROM registrations
WHERE event_id = $1 AND status = 'active'`

	var total int
	if err := s.queryRow(ctx, query, eventID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("sum active attendees: %w", err)
	}
	return total, nil
}
