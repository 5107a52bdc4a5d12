package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/event-horizon/internal/app"
	"github.com/cimillas/event-horizon/internal/domain"
)

// EventLister is the minimal interface needed to list events.
type EventLister interface {
	ListEvents(ctx context.Context, includeInactive bool) ([]domain.EventSummary, error)
}

// EventGetter is the minimal interface needed to read one event.
type EventGetter interface {
	GetEvent(ctx context.Context, eventID string) (domain.EventSummary, error)
}

// EventCreator is the minimal interface needed to create events.
type EventCreator interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
}

// EventUpdater is the minimal interface needed to update events.
type EventUpdater interface {
	UpdateEvent(ctx context.Context, in app.UpdateEventInput) (domain.EventSummary, error)
}

// EventCanceler is the minimal interface needed to cancel events.
type EventCanceler interface {
	CancelEvent(ctx context.Context, principal domain.Principal, eventID string) (domain.EventSummary, error)
}

// EventDeleter is the minimal interface needed to delete events.
type EventDeleter interface {
	DeleteEvent(ctx context.Context, principal domain.Principal, eventID string) error
}

type eventRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	MaxAttendees int    `json:"max_attendees"`
	StartsAt     string `json:"starts_at"`
}

// input converts the request; a missing starts_at is left zero for the
// service to reject.
func (req eventRequest) input() (app.EventInput, bool) {
	in := app.EventInput{
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		MaxAttendees: req.MaxAttendees,
	}
	if strings.TrimSpace(req.StartsAt) != "" {
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			return app.EventInput{}, false
		}
		in.StartsAt = startsAt
	}
	return in, true
}

type eventResponse struct {
	ID              string    `json:"id"`
	OrganizerID     string    `json:"organizer_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	MaxAttendees    int       `json:"max_attendees"`
	RegisteredTotal int       `json:"registered_total"`
	Remaining       int       `json:"remaining"`
	StartsAt        time.Time `json:"starts_at"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newEventResponse(s domain.EventSummary) eventResponse {
	return eventResponse{
		ID:              s.ID,
		OrganizerID:     s.OrganizerID,
		Name:            s.Name,
		Description:     s.Description,
		Location:        s.Location,
		MaxAttendees:    s.MaxAttendees,
		RegisteredTotal: s.RegisteredTotal,
		Remaining:       s.Remaining(),
		StartsAt:        s.StartsAt,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// HandleListEvents returns an HTTP handler listing events by start time.
func HandleListEvents(svc EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive := false
		if raw := r.URL.Query().Get("include_inactive"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidQuery, "include_inactive must be a boolean")
				return
			}
			includeInactive = v
		}

		events, err := svc.ListEvents(r.Context(), includeInactive)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := make([]eventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, newEventResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleGetEvent(svc EventGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newEventResponse(event))
	}
}

// HandleCreateEvent returns an HTTP handler creating an event owned by the caller.
func HandleCreateEvent(svc EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())

		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, ok := req.input()
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "invalid starts_at format")
			return
		}

		event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
			Organizer:  principal,
			EventInput: in,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newEventResponse(domain.EventSummary{Event: event}))
	}
}

func HandleUpdateEvent(svc EventUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())

		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, ok := req.input()
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "invalid starts_at format")
			return
		}

		event, err := svc.UpdateEvent(r.Context(), app.UpdateEventInput{
			Principal:  principal,
			EventID:    chi.URLParam(r, "eventID"),
			EventInput: in,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newEventResponse(event))
	}
}

func HandleCancelEvent(svc EventCanceler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		event, err := svc.CancelEvent(r.Context(), principal, chi.URLParam(r, "eventID"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newEventResponse(event))
	}
}

func HandleDeleteEvent(svc EventDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFrom(r.Context())
		if err := svc.DeleteEvent(r.Context(), principal, chi.URLParam(r, "eventID")); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
