package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cimillas/event-horizon/internal/app"
	"github.com/cimillas/event-horizon/internal/clock"
	"github.com/cimillas/event-horizon/internal/domain"
	"github.com/cimillas/event-horizon/internal/testutil"
)

func TestEventRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewEventRepository(pool)

	t.Run("CreateEvent and GetEventSummary", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
		event := domain.Event{
			ID:           "00000000-0000-0000-0000-000000000010",
			OrganizerID:  "org-1",
			Name:         "Gopher Meetup",
			Location:     "Nashville",
			MaxAttendees: 20,
			StartsAt:     now.Add(24 * time.Hour),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("create event: %v", err)
		}
		testutil.InsertRegistration(t, ctx, pool, event.ID, domain.Registration{RegistrantID: "alice", AttendeeCount: 3, IdempotencyKey: "a"})
		testutil.InsertRegistration(t, ctx, pool, event.ID, domain.Registration{RegistrantID: "bob", AttendeeCount: 4, IdempotencyKey: "b", Status: domain.RegistrationStatusCanceled})

		got, err := repo.GetEventSummary(ctx, event.ID)
		if err != nil {
			t.Fatalf("get summary: %v", err)
		}
		if got.Name != event.Name || !got.StartsAt.Equal(event.StartsAt) {
			t.Fatalf("unexpected event: %+v", got.Event)
		}
		if got.RegisteredTotal != 3 {
			t.Fatalf("expected registered total 3, got %d", got.RegisteredTotal)
		}

		_, err = repo.GetEventSummary(ctx, "00000000-0000-0000-0000-000000000099")
		if !errors.Is(err, domain.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
		_, err = repo.GetEventSummary(ctx, "not-a-uuid")
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("ListEventSummaries filters inactive", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		activeID := testutil.InsertEvent(t, ctx, pool, "org-1", 10)
		inactiveID := testutil.InsertEvent(t, ctx, pool, "org-1", 10)
		if _, err := pool.Exec(ctx, `UPDATE events SET active = FALSE WHERE id = $1`, inactiveID); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		events, err := repo.ListEventSummaries(ctx, false)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(events) != 1 || events[0].ID != activeID {
			t.Fatalf("expected only active event, got %+v", events)
		}

		all, err := repo.ListEventSummaries(ctx, true)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 events, got %d", len(all))
		}
	})

	t.Run("trigger refuses max below registered total", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 10)
		testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "alice", AttendeeCount: 6, IdempotencyKey: "a"})

		event, err := repo.GetEvent(ctx, eventID)
		if err != nil {
			t.Fatalf("get event: %v", err)
		}
		event.MaxAttendees = 5
		if err := repo.UpdateEvent(ctx, event); !errors.Is(err, domain.ErrCapacityBelowTotal) {
			t.Fatalf("expected ErrCapacityBelowTotal, got %v", err)
		}
	})

	t.Run("DeleteEvent", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 10)
		if err := repo.DeleteEvent(ctx, eventID); err != nil {
			t.Fatalf("delete event: %v", err)
		}
		if err := repo.DeleteEvent(ctx, eventID); !errors.Is(err, domain.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}

func TestRegistrationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewRegistrationRepository(pool)

	t.Run("GetEventForUpdate and SumActiveAttendees", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 10)
		testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "alice", AttendeeCount: 2, IdempotencyKey: "a"})
		testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "bob", AttendeeCount: 5, IdempotencyKey: "b", Status: domain.RegistrationStatusCanceled})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			event, err := repo.GetEventForUpdate(txCtx, eventID)
			if err != nil {
				return err
			}
			if event.MaxAttendees != 10 {
				t.Fatalf("unexpected event: %+v", event)
			}
			total, err := repo.SumActiveAttendees(txCtx, eventID)
			if err != nil {
				return err
			}
			if total != 2 {
				t.Fatalf("expected active total 2, got %d", total)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
	})

	t.Run("CreateRegistration maps constraint violations", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 5)
		now := time.Now().UTC()
		reg := domain.Registration{
			ID:             uuid.NewString(),
			EventID:        eventID,
			RegistrantID:   "alice",
			AttendeeCount:  2,
			Status:         domain.RegistrationStatusActive,
			IdempotencyKey: "idem-1",
			CreatedAt:      now,
		}
		if err := repo.CreateRegistration(ctx, reg); err != nil {
			t.Fatalf("create registration: %v", err)
		}

		testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "carol", AttendeeCount: 1, IdempotencyKey: "idem-c", Status: domain.RegistrationStatusCanceled})
		dup := reg
		dup.ID = uuid.NewString()
		dup.RegistrantID = "carol"
		dup.IdempotencyKey = "idem-c"
		dup.AttendeeCount = 1
		if err := repo.CreateRegistration(ctx, dup); !errors.Is(err, domain.ErrIdempotencyConflict) {
			t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
		}

		second := reg
		second.ID = uuid.NewString()
		second.IdempotencyKey = "idem-2"
		if err := repo.CreateRegistration(ctx, second); !errors.Is(err, domain.ErrAlreadyRegistered) {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}

		over := reg
		over.ID = uuid.NewString()
		over.RegistrantID = "bob"
		over.AttendeeCount = 4
		if err := repo.CreateRegistration(ctx, over); !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("expected trigger to refuse overbooking, got %v", err)
		}

		found, err := repo.FindRegistrationByIdempotencyKey(ctx, eventID, "alice", "idem-1")
		if err != nil {
			t.Fatalf("find registration: %v", err)
		}
		if found == nil || found.ID != reg.ID {
			t.Fatalf("unexpected registration: %+v", found)
		}
	})

	t.Run("constraint violation inside a transaction keeps it usable", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 5)
		testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "alice", AttendeeCount: 1, IdempotencyKey: "idem-1", Status: domain.RegistrationStatusCanceled})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			err := repo.CreateRegistration(txCtx, domain.Registration{
				ID:             uuid.NewString(),
				EventID:        eventID,
				RegistrantID:   "alice",
				AttendeeCount:  1,
				Status:         domain.RegistrationStatusActive,
				IdempotencyKey: "idem-1",
				CreatedAt:      time.Now().UTC(),
			})
			if !errors.Is(err, domain.ErrIdempotencyConflict) {
				t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
			}
			found, err := repo.FindRegistrationByIdempotencyKey(txCtx, eventID, "alice", "idem-1")
			if err != nil {
				return err
			}
			if found == nil {
				t.Fatalf("expected existing registration")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
	})

	t.Run("CancelRegistration and listings", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		eventID := testutil.InsertEvent(t, ctx, pool, "org-1", 5)
		regID := testutil.InsertRegistration(t, ctx, pool, eventID, domain.Registration{RegistrantID: "alice", AttendeeCount: 2, IdempotencyKey: "a"})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			reg, err := repo.GetRegistrationForUpdate(txCtx, regID)
			if err != nil {
				return err
			}
			at := time.Now().UTC()
			reg.Status = domain.RegistrationStatusCanceled
			reg.CanceledAt = &at
			return repo.CancelRegistration(txCtx, reg)
		})
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}

		regs, err := repo.ListRegistrationsByEvent(ctx, eventID)
		if err != nil {
			t.Fatalf("list by event: %v", err)
		}
		if len(regs) != 1 || regs[0].Status != domain.RegistrationStatusCanceled || regs[0].CanceledAt == nil {
			t.Fatalf("unexpected registrations: %+v", regs)
		}

		mine, err := repo.ListRegistrationsByRegistrant(ctx, "alice")
		if err != nil {
			t.Fatalf("list by registrant: %v", err)
		}
		if len(mine) != 1 {
			t.Fatalf("expected 1 registration, got %d", len(mine))
		}

		_, err = repo.GetRegistrationForUpdate(ctx, "00000000-0000-0000-0000-000000000042")
		if !errors.Is(err, domain.ErrRegistrationNotFound) {
			t.Fatalf("expected ErrRegistrationNotFound, got %v", err)
		}
	})
}

func TestRegister_ConcurrentNeverOverbooks(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	const capacity = 5
	const requests = 40

	eventID := testutil.InsertEvent(t, ctx, pool, "org-1", capacity)
	svc := app.NewRegistrationService(NewRegistrationRepository(pool), clock.NewSystem())

	var ok, full int32
	var wg sync.WaitGroup
	wg.Add(requests)
	for i := 0; i < requests; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(ctx, app.RegisterInput{
				Registrant:     domain.Principal{ID: fmt.Sprintf("user-%d", i), Role: domain.RoleRegistrant},
				EventID:        eventID,
				AttendeeCount:  1,
				IdempotencyKey: fmt.Sprintf("key-%d", i),
			})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, domain.ErrCapacityExceeded):
				atomic.AddInt32(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != capacity {
		t.Fatalf("expected %d successes, got %d", capacity, ok)
	}
	if full != requests-capacity {
		t.Fatalf("expected %d rejections, got %d", requests-capacity, full)
	}

	var total int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(SUM(attendee_count), 0) FROM registrations WHERE event_id = $1 AND status = 'active'`, eventID).Scan(&total); err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != capacity {
		t.Fatalf("expected %d registered, got %d", capacity, total)
	}
}
