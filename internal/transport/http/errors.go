package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/cimillas/event-horizon/internal/auth"
	"github.com/cimillas/event-horizon/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidQuery          = "invalid_query"
	codeInvalidStartsAt       = "invalid_starts_at"
	codeInvalidID             = "invalid_id"
	codeEventNameRequired     = "event_name_required"
	codeStartsAtRequired      = "starts_at_required"
	codeInvalidMaxAttendees   = "invalid_max_attendees"
	codeInvalidAttendeeCount  = "invalid_attendee_count"
	codeIdempotencyRequired   = "idempotency_key_required"
	codeIdempotencyConflict   = "idempotency_conflict"
	codeCapacityExceeded      = "capacity_exceeded"
	codeCapacityBelowTotal    = "capacity_below_registered"
	codeEventNotFound         = "event_not_found"
	codeEventInactive         = "event_inactive"
	codeEventStarted          = "event_started"
	codeEventHasRegistrations = "event_has_registrations"
	codeRegistrationNotFound  = "registration_not_found"
	codeAlreadyRegistered     = "already_registered"
	codeUnauthorized          = "unauthorized"
	codeTokenExpired          = "token_expired"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// A malformed id in a path names no resource, hence 404.
var errorMappings = []errorMapping{
	{domain.ErrInvalidID, http.StatusNotFound, codeInvalidID},
	{domain.ErrEventNotFound, http.StatusNotFound, codeEventNotFound},
	{domain.ErrRegistrationNotFound, http.StatusNotFound, codeRegistrationNotFound},
	{domain.ErrEventNameRequired, http.StatusBadRequest, codeEventNameRequired},
	{domain.ErrStartsAtRequired, http.StatusBadRequest, codeStartsAtRequired},
	{domain.ErrInvalidMaxAttendees, http.StatusBadRequest, codeInvalidMaxAttendees},
	{domain.ErrInvalidAttendeeCount, http.StatusBadRequest, codeInvalidAttendeeCount},
	{domain.ErrIdempotencyKeyRequired, http.StatusBadRequest, codeIdempotencyRequired},
	{domain.ErrIdempotencyConflict, http.StatusConflict, codeIdempotencyConflict},
	{domain.ErrCapacityExceeded, http.StatusConflict, codeCapacityExceeded},
	{domain.ErrCapacityBelowTotal, http.StatusConflict, codeCapacityBelowTotal},
	{domain.ErrEventInactive, http.StatusConflict, codeEventInactive},
	{domain.ErrEventStarted, http.StatusConflict, codeEventStarted},
	{domain.ErrEventHasRegistrations, http.StatusConflict, codeEventHasRegistrations},
	{domain.ErrAlreadyRegistered, http.StatusConflict, codeAlreadyRegistered},
	{domain.ErrForbidden, http.StatusForbidden, codeForbidden},
	{auth.ErrTokenExpired, http.StatusUnauthorized, codeTokenExpired},
	{auth.ErrTokenMissing, http.StatusUnauthorized, codeUnauthorized},
	{auth.ErrTokenInvalid, http.StatusUnauthorized, codeUnauthorized},
}

// writeServiceError maps a service error to its response. Unknown errors are
// logged and answered with a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
