package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cimillas/event-horizon/internal/domain"
)

// EventService is everything the event routes need.
type EventService interface {
	EventLister
	EventGetter
	EventCreator
	EventUpdater
	EventCanceler
	EventDeleter
}

// RegistrationService is everything the registration routes need.
type RegistrationService interface {
	Registerer
	RegistrationCanceler
	EventRegistrationLister
	MyRegistrationLister
}

type RouterConfig struct {
	Events        EventService
	Registrations RegistrationService
	Verifier      TokenVerifier
	Health        Pinger
	CORSOrigins   []string
	Logger        *slog.Logger
}

// NewRouter wires every route of the API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Recoverer(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(cfg.Health))
	r.Get("/events", HandleListEvents(cfg.Events))
	r.Get("/events/{eventID}", HandleGetEvent(cfg.Events))

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))

		r.Post("/events/{eventID}/register", HandleRegister(cfg.Registrations))
		r.Get("/me/registrations", HandleListMyRegistrations(cfg.Registrations))
		r.Delete("/registrations/{registrationID}", HandleCancelRegistration(cfg.Registrations))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleOrganizer, domain.RoleAdmin))

			r.Post("/events", HandleCreateEvent(cfg.Events))
			r.Put("/events/{eventID}", HandleUpdateEvent(cfg.Events))
			r.Post("/events/{eventID}/cancel", HandleCancelEvent(cfg.Events))
			r.Delete("/events/{eventID}", HandleDeleteEvent(cfg.Events))
			r.Get("/events/{eventID}/registrations", HandleListEventRegistrations(cfg.Registrations))
		})
	})

	return r
}
