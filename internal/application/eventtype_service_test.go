package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/testfixtures"
)

func newEventTypeService(store *fakeStore) *EventTypeService {
	return NewEventTypeService(store, store, store, testfixtures.NewIDGenerator("et").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc())
}

func seedTestSchedule(t *testing.T, store *fakeStore, userID string) persistence.Schedule {
	t.Helper()
	svc := NewScheduleService(store, testfixtures.NewIDGenerator("sched").NextFunc(), testfixtures.NewClock(time.Time{}).NowFunc())
	schedule, err := svc.CreateSchedule(context.Background(), userID, CreateScheduleInput{
		Name:     "Working Hours",
		Timezone: "UTC",
		Slots:    []SlotInput{{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"}},
	})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return schedule
}

func TestEventTypeService_CreateEventType(t *testing.T) {
	t.Parallel()

	t.Run("creates an active event type", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		schedule := seedTestSchedule(t, store, "user-1")
		svc := newEventTypeService(store)

		eventType, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "Intro Call",
			Slug:            "Intro-Call",
			DurationMinutes: 30,
			LocationKind:    LocationMeet,
			ScheduleID:      &schedule.ID,
		})
		if err != nil {
			t.Fatalf("CreateEventType returned error: %v", err)
		}
		if !eventType.IsActive {
			t.Fatal("new event types should start active")
		}
		if eventType.Slug != "intro-call" {
			t.Fatalf("slug should be lowercased, got %q", eventType.Slug)
		}
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		t.Parallel()
		svc := newEventTypeService(newFakeStore())

		zero := 0
		_, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:             "",
			Slug:              "Bad Slug!",
			DurationMinutes:   5,
			BufferMinutes:     500,
			MaxBookingsPerDay: &zero,
			LocationKind:      "carrier-pigeon",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "slug", "duration_minutes", "buffer_minutes", "max_bookings_per_day", "location_kind"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected field error for %s: %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("accepts the documented location kinds and rejects others", func(t *testing.T) {
		t.Parallel()
		svc := newEventTypeService(newFakeStore())

		created, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "Office Hours",
			Slug:            "office-hours",
			DurationMinutes: 30,
			LocationKind:    "in-person",
			LocationValue:   "1 Main St",
		})
		if err != nil {
			t.Fatalf("in-person event type rejected: %v", err)
		}
		if created.LocationKind != LocationInPerson {
			t.Fatalf("expected in-person kind, got %q", created.LocationKind)
		}

		_, err = svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "Video Call",
			Slug:            "video-call",
			DurationMinutes: 30,
			LocationKind:    "zoom",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for unknown kind, got %v", err)
		}
		if _, ok := vErr.FieldErrors["location_kind"]; !ok {
			t.Fatalf("expected location_kind error: %v", vErr.FieldErrors)
		}
	})

	t.Run("requires a location value for phone and in-person kinds", func(t *testing.T) {
		t.Parallel()
		svc := newEventTypeService(newFakeStore())

		_, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "Site Visit",
			Slug:            "site-visit",
			DurationMinutes: 60,
			LocationKind:    LocationInPerson,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["location_value"]; !ok {
			t.Fatalf("expected location_value error: %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects duplicate slugs per user", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		svc := newEventTypeService(store)

		input := CreateEventTypeInput{Title: "Intro", Slug: "intro", DurationMinutes: 30, LocationKind: LocationMeet}
		if _, err := svc.CreateEventType(context.Background(), "user-1", input); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		if _, err := svc.CreateEventType(context.Background(), "user-1", input); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		// Another user may reuse the slug.
		if _, err := svc.CreateEventType(context.Background(), "user-2", input); err != nil {
			t.Fatalf("cross-user create failed: %v", err)
		}
	})

	t.Run("rejects a schedule too short for the duration", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		schedule := seedTestSchedule(t, store, "user-1")
		svc := newEventTypeService(store)

		_, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "All Day Workshop",
			Slug:            "workshop",
			DurationMinutes: 480,
			LocationKind:    LocationMeet,
			ScheduleID:      &schedule.ID,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["duration_minutes"]; !ok {
			t.Fatalf("expected duration_minutes error: %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects a schedule owned by someone else", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		schedule := seedTestSchedule(t, store, "user-2")
		svc := newEventTypeService(store)

		_, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
			Title:           "Intro",
			Slug:            "intro",
			DurationMinutes: 30,
			LocationKind:    LocationMeet,
			ScheduleID:      &schedule.ID,
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestEventTypeService_UpdateEventType(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newEventTypeService(store)

	eventType, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
		Title: "Intro", Slug: "intro", DurationMinutes: 30, LocationKind: LocationMeet,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.UpdateEventType(context.Background(), "user-1", eventType.ID, UpdateEventTypeInput{
		Title:           "Longer Intro",
		Slug:            "intro",
		DurationMinutes: 45,
		BufferMinutes:   10,
		LocationKind:    LocationPhone,
		LocationValue:   "+1 555 0100",
		IsActive:        false,
	})
	if err != nil {
		t.Fatalf("UpdateEventType returned error: %v", err)
	}
	if updated.DurationMinutes != 45 || updated.IsActive || updated.LocationKind != LocationPhone {
		t.Fatalf("update not applied: %#v", updated)
	}
}

func TestEventTypeService_DeleteEventType(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newEventTypeService(store)

	eventType, err := svc.CreateEventType(context.Background(), "user-1", CreateEventTypeInput{
		Title: "Intro", Slug: "intro", DurationMinutes: 30, LocationKind: LocationMeet,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A future confirmed booking blocks deletion.
	future := testfixtures.ReferenceTime().Add(24 * time.Hour)
	if err := store.CreateConfirmed(context.Background(), persistence.Booking{
		ID: "bk-1", EventTypeID: eventType.ID, UserID: "user-1",
		Start: future, End: future.Add(30 * time.Minute),
	}, 0); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	err = svc.DeleteEventType(context.Background(), "user-1", eventType.ID)
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}

	cancelled, _ := store.GetBooking(context.Background(), "bk-1")
	cancelled.Status = persistence.StatusCancelled
	if err := store.UpdateBooking(context.Background(), cancelled); err != nil {
		t.Fatalf("cancel booking: %v", err)
	}

	if err := svc.DeleteEventType(context.Background(), "user-1", eventType.ID); err != nil {
		t.Fatalf("DeleteEventType returned error: %v", err)
	}
	if _, err := svc.GetEventType(context.Background(), "user-1", eventType.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
