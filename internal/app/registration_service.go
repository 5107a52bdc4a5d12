package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cimillas/event-horizon/internal/clock"
	"github.com/cimillas/event-horizon/internal/domain"
)

type RegistrationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error)
	SumActiveAttendees(ctx context.Context, eventID string) (int, error)
	FindRegistrationByIdempotencyKey(ctx context.Context, eventID, registrantID, key string) (*domain.Registration, error)
	HasActiveRegistration(ctx context.Context, eventID, registrantID string) (bool, error)
	CreateRegistration(ctx context.Context, reg domain.Registration) error
	GetRegistrationForUpdate(ctx context.Context, registrationID string) (domain.Registration, error)
	CancelRegistration(ctx context.Context, reg domain.Registration) error
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
	ListRegistrationsByRegistrant(ctx context.Context, registrantID string) ([]domain.Registration, error)
}

type RegistrationService struct {
	repo  RegistrationRepository
	clock clock.Clock
}

func NewRegistrationService(repo RegistrationRepository, clk clock.Clock) *RegistrationService {
	return &RegistrationService{
		repo:  repo,
		clock: clk,
	}
}

type RegisterInput struct {
	Registrant     domain.Principal
	EventID        string
	AttendeeCount  int
	IdempotencyKey string
}

type RegisterResult struct {
	Registration domain.Registration
	Created      bool
}

// Register admits AttendeeCount people to an event if capacity allows. The
// capacity check and the insert happen under the event row lock so concurrent
// registrations cannot overbook.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (_ RegisterResult, err error) {
	ctx, span := startSpan(ctx, "RegistrationService.Register",
		attribute.String("event.id", in.EventID),
		attribute.Int("registration.attendee_count", in.AttendeeCount),
	)
	defer endSpan(span, &err)

	if in.AttendeeCount <= 0 || in.AttendeeCount > domain.MaxCount {
		return RegisterResult{}, domain.ErrInvalidAttendeeCount
	}
	if in.IdempotencyKey == "" {
		return RegisterResult{}, domain.ErrIdempotencyKeyRequired
	}
	if in.Registrant.ID == "" {
		return RegisterResult{}, domain.ErrForbidden
	}
	if err := checkID(in.EventID); err != nil {
		return RegisterResult{}, err
	}

	now := s.clock.Now()
	var result RegisterResult

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}

		// Checked under the lock so a retry racing its original sees the
		// committed row instead of tripping the one-active-registration rule.
		if replay, err := s.replay(txCtx, in); err != nil || replay != nil {
			if replay != nil {
				result = RegisterResult{Registration: *replay}
			}
			return err
		}
		if !event.Active {
			return domain.ErrEventInactive
		}
		if event.HasStarted(now) {
			return domain.ErrEventStarted
		}

		registered, err := s.repo.HasActiveRegistration(txCtx, in.EventID, in.Registrant.ID)
		if err != nil {
			return err
		}
		if registered {
			return domain.ErrAlreadyRegistered
		}

		total, err := s.repo.SumActiveAttendees(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !domain.CanRegister(event.MaxAttendees, total, in.AttendeeCount) {
			return domain.ErrCapacityExceeded
		}

		reg := domain.Registration{
			ID:             newID(),
			EventID:        in.EventID,
			RegistrantID:   in.Registrant.ID,
			AttendeeCount:  in.AttendeeCount,
			Status:         domain.RegistrationStatusActive,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}
		if err := s.repo.CreateRegistration(txCtx, reg); err != nil {
			// A concurrent request with the same key won; answer with its row.
			if errors.Is(err, domain.ErrIdempotencyConflict) {
				replay, rerr := s.replay(txCtx, in)
				if rerr != nil {
					return rerr
				}
				if replay != nil {
					result = RegisterResult{Registration: *replay}
					return nil
				}
			}
			return err
		}

		result = RegisterResult{Registration: reg, Created: true}
		return nil
	})
	if err != nil {
		return RegisterResult{}, err
	}
	return result, nil
}

func (s *RegistrationService) replay(ctx context.Context, in RegisterInput) (*domain.Registration, error) {
	existing, err := s.repo.FindRegistrationByIdempotencyKey(ctx, in.EventID, in.Registrant.ID, in.IdempotencyKey)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.AttendeeCount != in.AttendeeCount {
		return nil, domain.ErrIdempotencyConflict
	}
	return existing, nil
}

// CancelRegistration releases a registration's places. Canceling twice is a no-op.
func (s *RegistrationService) CancelRegistration(ctx context.Context, principal domain.Principal, registrationID string) (_ domain.Registration, err error) {
	ctx, span := startSpan(ctx, "RegistrationService.CancelRegistration", attribute.String("registration.id", registrationID))
	defer endSpan(span, &err)

	if err := checkID(registrationID); err != nil {
		return domain.Registration{}, err
	}

	now := s.clock.Now()
	var result domain.Registration

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reg, err := s.repo.GetRegistrationForUpdate(txCtx, registrationID)
		if err != nil {
			return err
		}
		if !principal.CanCancelRegistration(reg) {
			return domain.ErrForbidden
		}
		if !reg.IsActive() {
			result = reg
			return nil
		}

		reg.Status = domain.RegistrationStatusCanceled
		reg.CanceledAt = &now
		if err := s.repo.CancelRegistration(txCtx, reg); err != nil {
			return err
		}
		result = reg
		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}
	return result, nil
}

func (s *RegistrationService) ListEventRegistrations(ctx context.Context, principal domain.Principal, eventID string) (_ []domain.Registration, err error) {
	ctx, span := startSpan(ctx, "RegistrationService.ListEventRegistrations", attribute.String("event.id", eventID))
	defer endSpan(span, &err)

	if err := checkID(eventID); err != nil {
		return nil, err
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !principal.CanManageEvent(event) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListRegistrationsByEvent(ctx, eventID)
}

func (s *RegistrationService) ListMyRegistrations(ctx context.Context, principal domain.Principal) (_ []domain.Registration, err error) {
	ctx, span := startSpan(ctx, "RegistrationService.ListMyRegistrations")
	defer endSpan(span, &err)

	if principal.ID == "" {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListRegistrationsByRegistrant(ctx, principal.ID)
}
