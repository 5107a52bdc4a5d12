package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cimillas/event-horizon/internal/domain"
)

const eventColumns = `id, organizer_id, name, description, location, max_attendees, starts_at, active, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner, extra ...any) (domain.Event, error) {
	var e domain.Event
	var startsAt, createdAt, updatedAt int64
	dest := append([]any{
		&e.ID, &e.OrganizerID, &e.Name, &e.Description, &e.Location,
		&e.MaxAttendees, &startsAt, &e.Active, &createdAt, &updatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Event{}, err
	}
	e.StartsAt = fromMillis(startsAt)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}

func (s store) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	e, err := scanEvent(s.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// GetEventForUpdate reads the event inside the caller's transaction. The
// single connection already excludes every other writer until it ends.
func (s store) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return s.GetEvent(ctx, eventID)
}

func (s store) SumActiveAttendees(ctx context.Context, eventID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(attendee_count), 0)
FROM registrations
WHERE event_id = ? AND status = 'active'`

	var total int
	if err := s.queryRow(ctx, query, eventID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active attendees: %w", err)
	}
	return total, nil
}
