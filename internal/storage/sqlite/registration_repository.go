package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/event-horizon/internal/domain"
)

type RegistrationRepository struct {
	store
}

func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{store: store{db: db.sqlDB}}
}

const registrationColumns = `id, event_id, registrant_id, attendee_count, status, idempotency_key, created_at, canceled_at`

func scanRegistration(row scanner) (domain.Registration, error) {
	var reg domain.Registration
	var status string
	var createdAt int64
	var canceledAt sql.NullInt64
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.RegistrantID, &reg.AttendeeCount,
		&status, &reg.IdempotencyKey, &createdAt, &canceledAt,
	)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.CreatedAt = fromMillis(createdAt)
	if canceledAt.Valid {
		at := fromMillis(canceledAt.Int64)
		reg.CanceledAt = &at
	}
	return reg, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func (r *RegistrationRepository) FindRegistrationByIdempotencyKey(ctx context.Context, eventID, registrantID, key string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE event_id = ? AND registrant_id = ? AND idempotency_key = ?`

	reg, err := scanRegistration(r.queryRow(ctx, query, eventID, registrantID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find registration by idempotency key: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) HasActiveRegistration(ctx context.Context, eventID, registrantID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM registrations
	WHERE event_id = ? AND registrant_id = ? AND status = 'active'
)`

	var exists bool
	if err := r.queryRow(ctx, query, eventID, registrantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) CreateRegistration(ctx context.Context, reg domain.Registration) error {
	const stmt = `
INSERT INTO registrations (id, event_id, registrant_id, attendee_count, status, idempotency_key, created_at, canceled_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.exec(ctx, stmt,
		reg.ID,
		reg.EventID,
		reg.RegistrantID,
		reg.AttendeeCount,
		string(reg.Status),
		reg.IdempotencyKey,
		toMillis(reg.CreatedAt),
		nullMillis(reg.CanceledAt),
	)
	if err != nil {
		switch {
		case constraintMentions(err, "unique constraint failed", "idempotency_key"):
			return domain.ErrIdempotencyConflict
		case constraintMentions(err, "unique constraint failed", "registrations.registrant_id"),
			constraintMentions(err, "registrations_one_active_per_registrant"):
			return domain.ErrAlreadyRegistered
		case constraintMentions(err, "registrations_capacity"):
			return domain.ErrCapacityExceeded
		case constraintMentions(err, "check constraint failed", "attendee_count"):
			return domain.ErrInvalidAttendeeCount
		case isForeignKeyViolation(err):
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// GetRegistrationForUpdate reads a registration inside the caller's
// transaction; see GetEventForUpdate.
func (r *RegistrationRepository) GetRegistrationForUpdate(ctx context.Context, registrationID string) (domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`

	reg, err := scanRegistration(r.queryRow(ctx, query, registrationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Registration{}, domain.ErrRegistrationNotFound
		}
		return domain.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) CancelRegistration(ctx context.Context, reg domain.Registration) error {
	res, err := r.exec(ctx, `UPDATE registrations SET status = ?, canceled_at = ? WHERE id = ?`,
		string(reg.Status), nullMillis(reg.CanceledAt), reg.ID)
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	return expectOneRow(res, domain.ErrRegistrationNotFound)
}

func (r *RegistrationRepository) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE event_id = ?
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, eventID)
}

func (r *RegistrationRepository) ListRegistrationsByRegistrant(ctx context.Context, registrantID string) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE registrant_id = ?
ORDER BY created_at DESC, id ASC`
	return r.list(ctx, query, registrantID)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg any) ([]domain.Registration, error) {
	rows, err := r.query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return regs, nil
}
