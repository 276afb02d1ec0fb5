package persistence

import "time"

// User represents a host account owning event types and schedules.
type User struct {
	ID        string
	Username  string
	Email     string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schedule is a named weekly availability template owned by a user.
type Schedule struct {
	ID        string
	UserID    string
	Name      string
	Timezone  string
	IsDefault bool
	Slots     []ScheduleSlot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleSlot is one weekly time range belonging to a schedule. StartTime
// and EndTime are "HH:MM" strings in the schedule's local clock; DayOfWeek
// is 0 (Sunday) through 6 (Saturday).
type ScheduleSlot struct {
	ID         string
	ScheduleID string
	DayOfWeek  int
	StartTime  string
	EndTime    string
}

// EventType is a bookable meeting template.
type EventType struct {
	ID                string
	UserID            string
	Title             string
	Slug              string
	Description       string
	DurationMinutes   int
	BufferMinutes     int
	MaxBookingsPerDay *int
	LocationKind      string
	LocationValue     string
	IsActive          bool
	ScheduleID        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Booking is a meeting reservation. Bookings are never hard-deleted;
// cancellation and rescheduling are status transitions.
type Booking struct {
	ID            string
	EventTypeID   string
	UserID        string
	BookerName    string
	BookerEmail   string
	BookerPhone   string
	Start         time.Time
	End           time.Time
	Timezone      string
	LocationKind  string
	LocationValue string
	GuestEmails   []string
	Notes         string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking status values. StatusPending is accepted as a filter target but no
// repository or service operation produces it.
const (
	StatusConfirmed   = "confirmed"
	StatusCancelled   = "cancelled"
	StatusRescheduled = "rescheduled"
	StatusPending     = "pending"
)

// BookingFilter narrows booking list queries. Zero-valued fields are ignored.
type BookingFilter struct {
	Status        string
	AttendeeName  string // case-insensitive substring match on booker name
	AttendeeEmail string
	EventTypeID   string
	From          *time.Time // start >= From
	To            *time.Time // start < To
	BookingID     string
}

// OverlapQuery describes a confirmed-booking intersection check. Exactly one
// of UserID or EventTypeID scopes the query; Buffer widens the probed
// interval symmetrically; ExcludeBookingID omits the booking being moved.
type OverlapQuery struct {
	UserID           string
	EventTypeID      string
	Start            time.Time
	End              time.Time
	Buffer           time.Duration
	ExcludeBookingID string
}
