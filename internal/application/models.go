package application

import "time"

// CreateUserInput carries the fields for registering or reusing a host account.
type CreateUserInput struct {
	Username string
	Email    string
	Timezone string
}

// UpdateUserInput carries the mutable fields of a host account.
type UpdateUserInput struct {
	Username string
	Email    string
	Timezone string
}

// SlotInput is one weekly availability range in a schedule request.
type SlotInput struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CreateScheduleInput carries the fields for a new availability schedule.
type CreateScheduleInput struct {
	Name      string
	Timezone  string
	IsDefault bool
	Slots     []SlotInput
}

// UpdateScheduleInput carries the replacement state for an existing schedule.
// The slot list fully replaces the stored one.
type UpdateScheduleInput struct {
	Name      string
	Timezone  string
	IsDefault bool
	Slots     []SlotInput
}

// CreateEventTypeInput carries the fields for a new bookable meeting template.
type CreateEventTypeInput struct {
	Title             string
	Slug              string
	Description       string
	DurationMinutes   int
	BufferMinutes     int
	MaxBookingsPerDay *int
	LocationKind      string
	LocationValue     string
	ScheduleID        *string
}

// UpdateEventTypeInput carries the replacement state for an event type.
type UpdateEventTypeInput struct {
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
}

// CreateBookingInput carries a booker's reservation request.
type CreateBookingInput struct {
	EventTypeID string
	BookerName  string
	BookerEmail string
	BookerPhone string
	Start       time.Time
	Timezone    string
	GuestEmails []string
	Notes       string
}

// RescheduleBookingInput moves an existing booking to a new start time.
// BookerEmail must match the booking's owner.
type RescheduleBookingInput struct {
	BookingID   string
	BookerEmail string
	NewStart    time.Time
	Reason      string
}

// CancelBookingInput cancels an existing booking on behalf of its owner.
type CancelBookingInput struct {
	BookingID   string
	BookerEmail string
}
