package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/event-horizon/internal/domain"
)

type RegistrationRepository struct {
	store
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{store: store{pool: pool}}
}

const registrationColumns = `id, event_id, registrant_id, attendee_count, status, idempotency_key, created_at, canceled_at`

func scanRegistration(row pgx.Row) (domain.Registration, error) {
	var reg domain.Registration
	var status string
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.RegistrantID, &reg.AttendeeCount,
		&status, &reg.IdempotencyKey, &reg.CreatedAt, &reg.CanceledAt,
	)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.Status = domain.RegistrationStatus(status)
	reg.CreatedAt = reg.CreatedAt.UTC()
	if reg.CanceledAt != nil {
		at := reg.CanceledAt.UTC()
		reg.CanceledAt = &at
	}
	return reg, nil
}

func (r *RegistrationRepository) FindRegistrationByIdempotencyKey(ctx context.Context, eventID, registrantID, key string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE event_id = $1 AND registrant_id = $2 AND idempotency_key = $3`

	reg, err := scanRegistration(r.queryRow(ctx, query, eventID, registrantID, key))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
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
	WHERE event_id = $1 AND registrant_id = $2 AND status = 'active'
)`

	var exists bool
	if err := r.queryRow(ctx, query, eventID, registrantID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check active registration: %w", err)
	}
	return exists, nil
}

func (r *RegistrationRepository) CreateRegistration(ctx context.Context, reg domain.Registration) error {
	const stmt = `
INSERT INTO registrations (id, event_id, registrant_id, attendee_count, status, idempotency_key, created_at, canceled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	err := r.execSavepoint(ctx, stmt,
		reg.ID,
		reg.EventID,
		reg.RegistrantID,
		reg.AttendeeCount,
		string(reg.Status),
		reg.IdempotencyKey,
		reg.CreatedAt,
		reg.CanceledAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "registrations_idempotency_key"):
			return domain.ErrIdempotencyConflict
		case isUniqueViolation(err, "registrations_one_active_per_registrant"):
			return domain.ErrAlreadyRegistered
		case isCheckViolation(err, "registrations_capacity"):
			return domain.ErrCapacityExceeded
		case isCheckViolation(err, "registrations_attendee_count_check"):
			return domain.ErrInvalidAttendeeCount
		case isForeignKeyViolation(err):
			return domain.ErrEventNotFound
		case isInvalidUUID(err):
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) GetRegistrationForUpdate(ctx context.Context, registrationID string) (domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`

	reg, err := scanRegistration(r.queryRow(ctx, query, registrationID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Registration{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Registration{}, domain.ErrRegistrationNotFound
		}
		return domain.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) CancelRegistration(ctx context.Context, reg domain.Registration) error {
	const stmt = `UPDATE registrations SET status = $2, canceled_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, reg.ID, string(reg.Status), reg.CanceledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("cancel registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE event_id = $1
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, eventID)
}

func (r *RegistrationRepository) ListRegistrationsByRegistrant(ctx context.Context, registrantID string) ([]domain.Registration, error) {
	query := `SELECT ` + registrationColumns + `
FROM registrations
WHERE registrant_id = $1
ORDER BY created_at DESC, id ASC`
	return r.list(ctx, query, registrantID)
}

func (r *RegistrationRepository) list(ctx context.Context, query string, arg any) ([]domain.Registration, error) {
	rows, err := r.query(ctx, query, arg)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
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
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate registrations: %w", rows.Err())
	}
	return regs, nil
}
