package app

import (
	"context"
	"sort"
	"sync"

	"github.com/cimillas/event-horizon/internal/domain"
)

// fakeStore implements both repository ports in memory. WithTx holds a mutex
// for the whole callback, standing in for the event row lock.
type fakeStore struct {
	mu            sync.Mutex
	events        map[string]domain.Event
	registrations []domain.Registration

	createRegistrationErr error
}

func newFakeStore(events []domain.Event, regs []domain.Registration) *fakeStore {
	e := make(map[string]domain.Event, len(events))
	for _, event := range events {
		e[event.ID] = event
	}
	return &fakeStore{
		events:        e,
		registrations: append([]domain.Registration{}, regs...),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeStore) CreateEvent(_ context.Context, event domain.Event) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeStore) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	event, ok := f.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeStore) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	return f.GetEvent(ctx, eventID)
}

func (f *fakeStore) GetEventSummary(ctx context.Context, eventID string) (domain.EventSummary, error) {
	event, err := f.GetEvent(ctx, eventID)
	if err != nil {
		return domain.EventSummary{}, err
	}
	total, _ := f.SumActiveAttendees(ctx, eventID)
	return domain.EventSummary{Event: event, RegisteredTotal: total}, nil
}

func (f *fakeStore) ListEventSummaries(ctx context.Context, includeInactive bool) ([]domain.EventSummary, error) {
	var out []domain.EventSummary
	for _, event := range f.events {
		if !event.Active && !includeInactive {
			continue
		}
		total, _ := f.SumActiveAttendees(ctx, event.ID)
		out = append(out, domain.EventSummary{Event: event, RegisteredTotal: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeStore) SumActiveAttendees(_ context.Context, eventID string) (int, error) {
	total := 0
	for _, r := range f.registrations {
		if r.EventID == eventID && r.IsActive() {
			total += r.AttendeeCount
		}
	}
	return total, nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, event domain.Event) error {
	if _, ok := f.events[event.ID]; !ok {
		return domain.ErrEventNotFound
	}
	f.events[event.ID] = event
	return nil
}

func (f *fakeStore) DeleteEvent(_ context.Context, eventID string) error {
	if _, ok := f.events[eventID]; !ok {
		return domain.ErrEventNotFound
	}
	delete(f.events, eventID)
	return nil
}

func (f *fakeStore) FindRegistrationByIdempotencyKey(_ context.Context, eventID, registrantID, key string) (*domain.Registration, error) {
	for i := range f.registrations {
		r := f.registrations[i]
		if r.EventID == eventID && r.RegistrantID == registrantID && r.IdempotencyKey == key {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) HasActiveRegistration(_ context.Context, eventID, registrantID string) (bool, error) {
	for _, r := range f.registrations {
		if r.EventID == eventID && r.RegistrantID == registrantID && r.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateRegistration(_ context.Context, reg domain.Registration) error {
	if f.createRegistrationErr != nil {
		return f.createRegistrationErr
	}
	f.registrations = append(f.registrations, reg)
	return nil
}

func (f *fakeStore) GetRegistrationForUpdate(_ context.Context, registrationID string) (domain.Registration, error) {
	for _, r := range f.registrations {
		if r.ID == registrationID {
			return r, nil
		}
	}
	return domain.Registration{}, domain.ErrRegistrationNotFound
}

func (f *fakeStore) CancelRegistration(_ context.Context, reg domain.Registration) error {
	for i := range f.registrations {
		if f.registrations[i].ID == reg.ID {
			f.registrations[i] = reg
			return nil
		}
	}
	return domain.ErrRegistrationNotFound
}

func (f *fakeStore) ListRegistrationsByEvent(_ context.Context, eventID string) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, r := range f.registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRegistrationsByRegistrant(_ context.Context, registrantID string) ([]domain.Registration, error) {
	var out []domain.Registration
	for _, r := range f.registrations {
		if r.RegistrantID == registrantID {
			out = append(out, r)
		}
	}
	return out, nil
}
