package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/event-horizon/internal/app"
	"github.com/cimillas/event-horizon/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Registerer is the minimal interface needed to register for an event.
type Registerer interface {
	Register(ctx context.Context, in app.RegisterInput) (app.RegisterResult, error)
}

// RegistrationCanceler is the minimal interface needed to cancel a registration.
type RegistrationCanceler interface {
	CancelRegistration(ctx context.Context, principal domain.Principal, registrationID string) (domain.Registration, error)
}

// EventRegistrationLister is the minimal interface needed to list an event's registrations.
type EventRegistrationLister interface {
	ListEventRegistrations(ctx context.Context, principal domain.Principal, eventID string) ([]domain.Registration, error)
}

// MyRegistrationLister is the minimal interface needed to list the caller's registrations.
type MyRegistrationLister interface {
	ListMyRegistrations(ctx context.Context, principal domain.Principal) ([]domain.Registration, error)
}

type registerRequest struct {
	AttendeeCount int `json:"attendee_count"`
}

type registrationResponse struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	RegistrantID  string     `json:"registrant_id"`
	AttendeeCount int        `json:"attendee_count"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
}

func newRegistrationResponse(reg domain.Registration) registrationResponse {
	return registrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		RegistrantID:  reg.RegistrantID,
		AttendeeCount: reg.AttendeeCount,
		Status:        string(reg.Status),
		CreatedAt:     reg.CreatedAt,
		CanceledAt:    reg.CanceledAt,
	}
}

func newRegistrationList(regs []domain.Registration) []registrationResponse {
	resp := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		resp = append(resp, newRegistrationResponse(reg))
	}
	return resp
}

// HandleRegister returns an HTTP handler registering the caller for an event.
// A replayed Idempotency-Key answers 200 with the original registration.
func HandleRegister(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())

		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, err := svc.Register(r.Context(), app.RegisterInput{
			Registrant:     principal,
			EventID:        chi.URLParam(r, "eventID"),
			AttendeeCount:  req.AttendeeCount,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, newRegistrationResponse(result.Registration))
	}
}

func HandleCancelRegistration(svc RegistrationCanceler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		if _, err := svc.CancelRegistration(r.Context(), principal, chi.URLParam(r, "registrationID")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleListEventRegistrations(svc EventRegistrationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		regs, err := svc.ListEventRegistrations(r.Context(), principal, chi.URLParam(r, "eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newRegistrationList(regs))
	}
}

func HandleListMyRegistrations(svc MyRegistrationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		regs, err := svc.ListMyRegistrations(r.Context(), principal)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newRegistrationList(regs))
	}
}
