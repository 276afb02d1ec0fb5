package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/meetsync/internal/application"
	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

var testHost = persistence.User{
	ID:       "host-1",
	Username: "alice",
	Email:    "alice@example.com",
	Timezone: "UTC",
}

type stubResolver struct {
	getUser     func(ctx context.Context, id string) (persistence.User, error)
	defaultUser func(ctx context.Context) (persistence.User, error)
}

func (s stubResolver) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s.getUser != nil {
		return s.getUser(ctx, id)
	}
	return testHost, nil
}

func (s stubResolver) DefaultUser(ctx context.Context) (persistence.User, error) {
	if s.defaultUser != nil {
		return s.defaultUser(ctx)
	}
	return testHost, nil
}

type stubUserService struct {
	createOrGet func(ctx context.Context, input application.CreateUserInput) (persistence.User, error)
	byUsername  func(ctx context.Context, username string) (persistence.User, error)
	update      func(ctx context.Context, userID string, input application.UpdateUserInput) (persistence.User, error)
}

func (s stubUserService) CreateOrGetUser(ctx context.Context, input application.CreateUserInput) (persistence.User, error) {
	if s.createOrGet != nil {
		return s.createOrGet(ctx, input)
	}
	return testHost, nil
}

func (s stubUserService) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if s.byUsername != nil {
		return s.byUsername(ctx, username)
	}
	return testHost, nil
}

func (s stubUserService) UpdateUser(ctx context.Context, userID string, input application.UpdateUserInput) (persistence.User, error) {
	if s.update != nil {
		return s.update(ctx, userID, input)
	}
	return testHost, nil
}

type stubScheduleService struct {
	create     func(ctx context.Context, userID string, input application.CreateScheduleInput) (persistence.Schedule, error)
	get        func(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	list       func(ctx context.Context, userID string) ([]persistence.Schedule, error)
	update     func(ctx context.Context, userID, scheduleID string, input application.UpdateScheduleInput) (persistence.Schedule, error)
	duplicate  func(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	setDefault func(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error)
	remove     func(ctx context.Context, userID, scheduleID string) error
}

func (s stubScheduleService) CreateSchedule(ctx context.Context, userID string, input application.CreateScheduleInput) (persistence.Schedule, error) {
	if s.create != nil {
		return s.create(ctx, userID, input)
	}
	return persistence.Schedule{}, nil
}

func (s stubScheduleService) GetSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	if s.get != nil {
		return s.get(ctx, userID, scheduleID)
	}
	return persistence.Schedule{}, nil
}

func (s stubScheduleService) ListSchedules(ctx context.Context, userID string) ([]persistence.Schedule, error) {
	if s.list != nil {
		return s.list(ctx, userID)
	}
	return nil, nil
}

func (s stubScheduleService) UpdateSchedule(ctx context.Context, userID, scheduleID string, input application.UpdateScheduleInput) (persistence.Schedule, error) {
	if s.update != nil {
		return s.update(ctx, userID, scheduleID, input)
	}
	return persistence.Schedule{}, nil
}

func (s stubScheduleService) DuplicateSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	if s.duplicate != nil {
		return s.duplicate(ctx, userID, scheduleID)
	}
	return persistence.Schedule{}, nil
}

func (s stubScheduleService) SetDefaultSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	if s.setDefault != nil {
		return s.setDefault(ctx, userID, scheduleID)
	}
	return persistence.Schedule{}, nil
}

func (s stubScheduleService) DeleteSchedule(ctx context.Context, userID, scheduleID string) error {
	if s.remove != nil {
		return s.remove(ctx, userID, scheduleID)
	}
	return nil
}

type stubEventTypeService struct {
	create func(ctx context.Context, userID string, input application.CreateEventTypeInput) (persistence.EventType, error)
	get    func(ctx context.Context, userID, eventTypeID string) (persistence.EventType, error)
	list   func(ctx context.Context, userID string) ([]persistence.EventType, error)
	update func(ctx context.Context, userID, eventTypeID string, input application.UpdateEventTypeInput) (persistence.EventType, error)
	remove func(ctx context.Context, userID, eventTypeID string) error
	bySlug func(ctx context.Context, userID, slug string) (persistence.EventType, error)
}

func (s stubEventTypeService) CreateEventType(ctx context.Context, userID string, input application.CreateEventTypeInput) (persistence.EventType, error) {
	if s.create != nil {
		return s.create(ctx, userID, input)
	}
	return persistence.EventType{}, nil
}

func (s stubEventTypeService) GetEventType(ctx context.Context, userID, eventTypeID string) (persistence.EventType, error) {
	if s.get != nil {
		return s.get(ctx, userID, eventTypeID)
	}
	return persistence.EventType{}, nil
}

func (s stubEventTypeService) ListEventTypes(ctx context.Context, userID string) ([]persistence.EventType, error) {
	if s.list != nil {
		return s.list(ctx, userID)
	}
	return nil, nil
}

func (s stubEventTypeService) UpdateEventType(ctx context.Context, userID, eventTypeID string, input application.UpdateEventTypeInput) (persistence.EventType, error) {
	if s.update != nil {
		return s.update(ctx, userID, eventTypeID, input)
	}
	return persistence.EventType{}, nil
}

func (s stubEventTypeService) DeleteEventType(ctx context.Context, userID, eventTypeID string) error {
	if s.remove != nil {
		return s.remove(ctx, userID, eventTypeID)
	}
	return nil
}

func (s stubEventTypeService) GetEventTypeBySlug(ctx context.Context, userID, slug string) (persistence.EventType, error) {
	if s.bySlug != nil {
		return s.bySlug(ctx, userID, slug)
	}
	return persistence.EventType{}, nil
}

type stubBookingService struct {
	get            func(ctx context.Context, userID, bookingID string) (persistence.Booking, error)
	list           func(ctx context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error)
	upcoming       func(ctx context.Context, userID string) ([]persistence.Booking, error)
	past           func(ctx context.Context, userID string) ([]persistence.Booking, error)
	cancel         func(ctx context.Context, input application.CancelBookingInput) (persistence.Booking, error)
	reschedule     func(ctx context.Context, input application.RescheduleBookingInput) (persistence.Booking, error)
	updateLocation func(ctx context.Context, userID, bookingID, kind, value string) (persistence.Booking, error)
	addGuests      func(ctx context.Context, userID, bookingID string, emails []string) (persistence.Booking, error)
	create         func(ctx context.Context, input application.CreateBookingInput) (persistence.Booking, error)
}

func (s stubBookingService) GetBooking(ctx context.Context, userID, bookingID string) (persistence.Booking, error) {
	if s.get != nil {
		return s.get(ctx, userID, bookingID)
	}
	return persistence.Booking{}, nil
}

func (s stubBookingService) ListBookings(ctx context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	if s.list != nil {
		return s.list(ctx, userID, filter)
	}
	return nil, nil
}

func (s stubBookingService) UpcomingBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	if s.upcoming != nil {
		return s.upcoming(ctx, userID)
	}
	return nil, nil
}

func (s stubBookingService) PastBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	if s.past != nil {
		return s.past(ctx, userID)
	}
	return nil, nil
}

func (s stubBookingService) CancelBooking(ctx context.Context, input application.CancelBookingInput) (persistence.Booking, error) {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	return persistence.Booking{}, nil
}

func (s stubBookingService) RescheduleBooking(ctx context.Context, input application.RescheduleBookingInput) (persistence.Booking, error) {
	if s.reschedule != nil {
		return s.reschedule(ctx, input)
	}
	return persistence.Booking{}, nil
}

func (s stubBookingService) UpdateBookingLocation(ctx context.Context, userID, bookingID, kind, value string) (persistence.Booking, error) {
	if s.updateLocation != nil {
		return s.updateLocation(ctx, userID, bookingID, kind, value)
	}
	return persistence.Booking{}, nil
}

func (s stubBookingService) AddGuests(ctx context.Context, userID, bookingID string, emails []string) (persistence.Booking, error) {
	if s.addGuests != nil {
		return s.addGuests(ctx, userID, bookingID, emails)
	}
	return persistence.Booking{}, nil
}

func (s stubBookingService) CreateBooking(ctx context.Context, input application.CreateBookingInput) (persistence.Booking, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return persistence.Booking{}, nil
}

type stubAvailabilityService struct {
	generate func(ctx context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error)
}

func (s stubAvailabilityService) GenerateSlotsForEventType(ctx context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error) {
	if s.generate != nil {
		return s.generate(ctx, eventType, date)
	}
	return []slots.Window{}, nil
}

type routerStubs struct {
	resolver     stubResolver
	users        stubUserService
	schedules    stubScheduleService
	eventTypes   stubEventTypeService
	bookings     stubBookingService
	availability stubAvailabilityService
}

func newTestRouter(stubs routerStubs) http.Handler {
	return NewRouter(RouterConfig{
		Users:          NewUserHandler(stubs.users, nil),
		Schedules:      NewScheduleHandler(stubs.schedules, nil),
		EventTypes:     NewEventTypeHandler(stubs.eventTypes, nil),
		Bookings:       NewBookingHandler(stubs.bookings, nil),
		Public:         NewPublicHandler(stubs.users, stubs.eventTypes, stubs.availability, stubs.bookings, nil),
		HostMiddleware: []func(http.Handler) http.Handler{ResolveUser(stubs.resolver, nil)},
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return env
}

func TestRouterMethodDispatch(t *testing.T) {
	t.Parallel()

	router := newTestRouter(routerStubs{})

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		allowed string
	}{
		{name: "delete users collection", method: http.MethodDelete, path: "/users", status: http.StatusMethodNotAllowed, allowed: "POST"},
		{name: "patch schedule", method: http.MethodPatch, path: "/schedules/s1", status: http.StatusMethodNotAllowed, allowed: "GET, PUT, DELETE"},
		{name: "get cancel action", method: http.MethodGet, path: "/bookings/b1/cancel", status: http.StatusMethodNotAllowed, allowed: "POST"},
		{name: "unknown booking action", method: http.MethodPost, path: "/bookings/b1/nonsense", status: http.StatusNotFound},
		{name: "public page with wrong depth", method: http.MethodGet, path: "/alice/intro", status: http.StatusNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.path, nil))

			if recorder.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, recorder.Code)
			}
			if tc.allowed != "" && recorder.Header().Get("Allow") != tc.allowed {
				t.Fatalf("expected Allow header %q, got %q", tc.allowed, recorder.Header().Get("Allow"))
			}
		})
	}
}

func TestResolveUser(t *testing.T) {
	t.Parallel()

	t.Run("header selects the acting account", func(t *testing.T) {
		t.Parallel()

		var seenID string
		router := newTestRouter(routerStubs{
			resolver: stubResolver{
				getUser: func(_ context.Context, id string) (persistence.User, error) {
					return persistence.User{ID: id, Username: "bob"}, nil
				},
			},
			schedules: stubScheduleService{
				list: func(_ context.Context, userID string) ([]persistence.Schedule, error) {
					seenID = userID
					return nil, nil
				},
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		req.Header.Set("X-User-ID", "host-42")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if seenID != "host-42" {
			t.Fatalf("expected handler to act as host-42, got %q", seenID)
		}
	})

	t.Run("missing header falls back to the default account", func(t *testing.T) {
		t.Parallel()

		var seenID string
		router := newTestRouter(routerStubs{
			schedules: stubScheduleService{
				list: func(_ context.Context, userID string) ([]persistence.Schedule, error) {
					seenID = userID
					return nil, nil
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/schedules", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if seenID != testHost.ID {
			t.Fatalf("expected handler to act as %q, got %q", testHost.ID, seenID)
		}
	})

	t.Run("unknown account maps to 404", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			resolver: stubResolver{
				getUser: func(_ context.Context, _ string) (persistence.User, error) {
					return persistence.User{}, application.ErrNotFound
				},
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		req.Header.Set("X-User-ID", "ghost")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create responds with 201 and the stored account", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			users: stubUserService{
				createOrGet: func(_ context.Context, input application.CreateUserInput) (persistence.User, error) {
					return persistence.User{ID: "u-1", Username: input.Username, Email: input.Email, Timezone: "UTC"}, nil
				},
			},
		})

		body := strings.NewReader(`{"username":"carol","email":"carol@example.com"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/users", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		env := decodeEnvelope(t, recorder)
		if !env.Success {
			t.Fatalf("expected success envelope, got %s", recorder.Body.String())
		}
		var dto struct {
			Username string `json:"username"`
		}
		if err := json.Unmarshal(env.Data, &dto); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
		if dto.Username != "carol" {
			t.Fatalf("expected username carol, got %q", dto.Username)
		}
	})

	t.Run("malformed body responds with 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json")))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		if env.Success || env.Error.Message != "invalid request body" {
			t.Fatalf("unexpected error envelope: %s", recorder.Body.String())
		}
	})

	t.Run("unknown username responds with 404 naming the entity", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			users: stubUserService{
				byUsername: func(_ context.Context, _ string) (persistence.User, error) {
					return persistence.User{}, &application.NotFoundError{Resource: "User"}
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/ghost", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
		var env envelope
		if err := json.NewDecoder(recorder.Body).Decode(&env); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if env.Error.Message != "User not found" {
			t.Fatalf("expected entity-specific message, got %q", env.Error.Message)
		}
	})
}

func TestScheduleHandlers(t *testing.T) {
	t.Parallel()

	t.Run("deleting the only schedule responds with 409", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			schedules: stubScheduleService{
				remove: func(_ context.Context, _, _ string) error {
					return &application.InvalidStateError{Reason: "Cannot delete the only schedule"}
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/schedules/s1", nil))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		if env.Error.Message != "Cannot delete the only schedule" {
			t.Fatalf("unexpected message %q", env.Error.Message)
		}
	})

	t.Run("duplicate responds with 201 and the copy", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			schedules: stubScheduleService{
				duplicate: func(_ context.Context, _, scheduleID string) (persistence.Schedule, error) {
					return persistence.Schedule{ID: "s2", UserID: testHost.ID, Name: "Working Hours (copy)"}, nil
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/schedules/s1/duplicate", nil))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
	})

	t.Run("someone else's schedule responds with 403", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			schedules: stubScheduleService{
				get: func(_ context.Context, _, _ string) (persistence.Schedule, error) {
					return persistence.Schedule{}, application.ErrForbidden
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/schedules/s1", nil))

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})

	t.Run("delete responds with 204 and no body", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/schedules/s1", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", recorder.Code)
		}
		if recorder.Body.Len() != 0 {
			t.Fatalf("expected empty body, got %q", recorder.Body.String())
		}
	})
}

func TestEventTypeHandlers(t *testing.T) {
	t.Parallel()

	t.Run("validation failures respond with 422 and field errors", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{
			"duration_minutes": "duration must be between 15 and 480 minutes",
		}}
		router := newTestRouter(routerStubs{
			eventTypes: stubEventTypeService{
				create: func(_ context.Context, _ string, _ application.CreateEventTypeInput) (persistence.EventType, error) {
					return persistence.EventType{}, vErr
				},
			},
		})

		body := strings.NewReader(`{"title":"Intro","slug":"intro","duration_minutes":5}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/event-types", body))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		env := decodeEnvelope(t, recorder)
		if env.Error.Fields["duration_minutes"] == "" {
			t.Fatalf("expected duration_minutes field error, got %s", recorder.Body.String())
		}
	})

	t.Run("duplicate slug responds with 409", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			eventTypes: stubEventTypeService{
				create: func(_ context.Context, _ string, _ application.CreateEventTypeInput) (persistence.EventType, error) {
					return persistence.EventType{}, application.ErrAlreadyExists
				},
			},
		})

		body := strings.NewReader(`{"title":"Intro","slug":"intro","duration_minutes":30}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/event-types", body))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})

	t.Run("list responds with all event types", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			eventTypes: stubEventTypeService{
				list: func(_ context.Context, userID string) ([]persistence.EventType, error) {
					return []persistence.EventType{
						{ID: "et-1", UserID: userID, Slug: "intro"},
						{ID: "et-2", UserID: userID, Slug: "deep-dive"},
					}, nil
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/event-types", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		var dtos []eventTypeDTO
		if err := json.Unmarshal(env.Data, &dtos); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
		if len(dtos) != 2 {
			t.Fatalf("expected 2 event types, got %d", len(dtos))
		}
	})
}

func TestBookingHandlers(t *testing.T) {
	t.Parallel()

	t.Run("list forwards query filters to the service", func(t *testing.T) {
		t.Parallel()

		var captured persistence.BookingFilter
		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				list: func(_ context.Context, _ string, filter persistence.BookingFilter) ([]persistence.Booking, error) {
					captured = filter
					return nil, nil
				},
			},
		})

		target := "/bookings?status=confirmed&attendee_name=bob&event_type_id=et-1&from=2026-03-02T00:00:00Z"
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if captured.Status != "confirmed" || captured.AttendeeName != "bob" || captured.EventTypeID != "et-1" {
			t.Fatalf("unexpected filter %+v", captured)
		}
		if captured.From == nil || !captured.From.Equal(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected from filter %v", captured.From)
		}
	})

	t.Run("malformed from timestamp responds with 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/bookings?from=yesterday", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		if env.Error.Message != "invalid timestamp, use RFC 3339" {
			t.Fatalf("unexpected message %q", env.Error.Message)
		}
	})

	t.Run("cancel forwards the booking id and body", func(t *testing.T) {
		t.Parallel()

		var captured application.CancelBookingInput
		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				cancel: func(_ context.Context, input application.CancelBookingInput) (persistence.Booking, error) {
					captured = input
					return persistence.Booking{ID: input.BookingID, Status: persistence.StatusCancelled}, nil
				},
			},
		})

		body := strings.NewReader(`{"booker_email":"bob@example.com"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/b1/cancel", body))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if captured.BookingID != "b1" || captured.BookerEmail != "bob@example.com" {
			t.Fatalf("unexpected input %+v", captured)
		}
	})

	t.Run("reschedule into an occupied slot responds with 409", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				reschedule: func(_ context.Context, _ application.RescheduleBookingInput) (persistence.Booking, error) {
					return persistence.Booking{}, &application.ConflictError{Reason: "This time slot is already booked"}
				},
			},
		})

		body := strings.NewReader(`{"booker_email":"bob@example.com","new_start":"2026-03-02T10:00:00Z"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/b1/reschedule", body))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		if env.Error.Message != "This time slot is already booked" {
			t.Fatalf("unexpected message %q", env.Error.Message)
		}
	})

	t.Run("reschedule with a malformed timestamp responds with 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{})

		body := strings.NewReader(`{"booker_email":"bob@example.com","new_start":"tomorrow"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/b1/reschedule", body))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
	})

	t.Run("upcoming and past route to their own listings", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				upcoming: func(_ context.Context, _ string) ([]persistence.Booking, error) {
					return []persistence.Booking{{ID: "b-next"}}, nil
				},
				past: func(_ context.Context, _ string) ([]persistence.Booking, error) {
					return []persistence.Booking{{ID: "b-done"}, {ID: "b-older"}}, nil
				},
			},
		})

		for path, wantLen := range map[string]int{"/bookings/upcoming": 1, "/bookings/past": 2} {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

			if recorder.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", path, recorder.Code)
			}
			env := decodeEnvelope(t, recorder)
			var dtos []bookingDTO
			if err := json.Unmarshal(env.Data, &dtos); err != nil {
				t.Fatalf("%s: failed to decode data: %v", path, err)
			}
			if len(dtos) != wantLen {
				t.Fatalf("%s: expected %d bookings, got %d", path, wantLen, len(dtos))
			}
		}
	})

	t.Run("add guests forwards the email list", func(t *testing.T) {
		t.Parallel()

		var captured []string
		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				addGuests: func(_ context.Context, _, _ string, emails []string) (persistence.Booking, error) {
					captured = emails
					return persistence.Booking{ID: "b1", GuestEmails: emails}, nil
				},
			},
		})

		body := strings.NewReader(`{"guest_emails":["dana@example.com","erin@example.com"]}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/bookings/b1/guests", body))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if len(captured) != 2 {
			t.Fatalf("expected 2 guest emails, got %v", captured)
		}
	})
}

func TestPublicRoutes(t *testing.T) {
	t.Parallel()

	t.Run("slots returns the open windows for a day", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		router := newTestRouter(routerStubs{
			availability: stubAvailabilityService{
				generate: func(_ context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error) {
					if !date.Equal(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)) {
						t.Errorf("unexpected date %v", date)
					}
					return []slots.Window{{Start: start, End: start.Add(30 * time.Minute)}}, nil
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/alice/intro/slots?date=2026-03-02", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		env := decodeEnvelope(t, recorder)
		var windows []slots.Window
		if err := json.Unmarshal(env.Data, &windows); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
		if len(windows) != 1 || !windows[0].Start.Equal(start) {
			t.Fatalf("unexpected windows %+v", windows)
		}
	})

	t.Run("missing date parameter responds with 400", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/alice/intro/slots", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		env := decodeEnvelope(t, recorder)
		if env.Error.Message != "invalid date, use YYYY-MM-DD" {
			t.Fatalf("unexpected message %q", env.Error.Message)
		}
	})

	t.Run("unknown host responds with 404", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			users: stubUserService{
				byUsername: func(_ context.Context, _ string) (persistence.User, error) {
					return persistence.User{}, application.ErrNotFound
				},
			},
		})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ghost/intro/slots?date=2026-03-02", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("booking resolves the event type before creating", func(t *testing.T) {
		t.Parallel()

		var captured application.CreateBookingInput
		router := newTestRouter(routerStubs{
			users: stubUserService{
				byUsername: func(_ context.Context, username string) (persistence.User, error) {
					return persistence.User{ID: "host-9", Username: username}, nil
				},
			},
			eventTypes: stubEventTypeService{
				bySlug: func(_ context.Context, userID, slug string) (persistence.EventType, error) {
					if userID != "host-9" {
						t.Errorf("expected slug lookup for host-9, got %q", userID)
					}
					return persistence.EventType{ID: "et-9", UserID: userID, Slug: slug}, nil
				},
			},
			bookings: stubBookingService{
				create: func(_ context.Context, input application.CreateBookingInput) (persistence.Booking, error) {
					captured = input
					return persistence.Booking{ID: "b-9", EventTypeID: input.EventTypeID, Status: persistence.StatusConfirmed}, nil
				},
			},
		})

		body := strings.NewReader(`{"booker_name":"Bob","booker_email":"bob@example.com","start":"2026-03-02T10:00:00Z","timezone":"UTC"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/alice/intro/bookings", body))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if captured.EventTypeID != "et-9" {
			t.Fatalf("expected booking against et-9, got %q", captured.EventTypeID)
		}
		if !captured.Start.Equal(time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected start %v", captured.Start)
		}
	})

	t.Run("fully booked slot responds with 409", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(routerStubs{
			bookings: stubBookingService{
				create: func(_ context.Context, _ application.CreateBookingInput) (persistence.Booking, error) {
					return persistence.Booking{}, &application.ConflictError{Reason: "This time slot is already booked"}
				},
			},
		})

		body := strings.NewReader(`{"booker_name":"Bob","booker_email":"bob@example.com","start":"2026-03-02T10:00:00Z"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/alice/intro/bookings", body))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})
}
