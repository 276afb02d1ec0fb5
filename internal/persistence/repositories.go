package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for host accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	FirstUser(ctx context.Context) (User, error)
}

// ScheduleRepository stores schedules and their weekly slots. Create and
// Update persist the full slot set; Update replaces existing slots.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	UpdateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, userID string) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	CountSchedules(ctx context.Context, userID string) (int, error)
	// ClearDefault unsets the default flag on every schedule of the user
	// except the one identified by exceptID (which may be empty).
	ClearDefault(ctx context.Context, userID, exceptID string) error
	SetDefault(ctx context.Context, id string) error
	// OldestSchedule returns the earliest-created schedule of the user.
	OldestSchedule(ctx context.Context, userID string) (Schedule, error)
}

// EventTypeRepository exposes CRUD operations for event types.
type EventTypeRepository interface {
	CreateEventType(ctx context.Context, eventType EventType) error
	UpdateEventType(ctx context.Context, eventType EventType) error
	GetEventType(ctx context.Context, id string) (EventType, error)
	GetEventTypeBySlug(ctx context.Context, userID, slug string) (EventType, error)
	ListEventTypes(ctx context.Context, userID string) ([]EventType, error)
	DeleteEventType(ctx context.Context, id string) error
}

// BookingRepository stores bookings. CreateConfirmed re-runs the confirmed
// overlap check and the insert inside one transaction so that concurrent
// submissions for the same window serialize at the store; the loser receives
// ErrConflict.
type BookingRepository interface {
	CreateConfirmed(ctx context.Context, booking Booking, buffer time.Duration) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, userID string, filter BookingFilter) ([]Booking, error)
	// ListConfirmedStartingBetween returns confirmed bookings of the user
	// whose start time falls in [from, to).
	ListConfirmedStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]Booking, error)
	CountConfirmedOverlapping(ctx context.Context, q OverlapQuery) (int, error)
	// CountConfirmedStartingBetween counts confirmed bookings of the event
	// type whose start time falls in [from, to).
	CountConfirmedStartingBetween(ctx context.Context, eventTypeID string, from, to time.Time) (int, error)
	CountUpcomingConfirmed(ctx context.Context, eventTypeID string, reference time.Time) (int, error)
}
