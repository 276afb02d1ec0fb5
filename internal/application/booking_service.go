package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/meetsync/internal/cache"
	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

// durationTolerance is the slack allowed between a proposed interval and the
// event type duration before the booking is rejected.
const durationTolerance = time.Minute

// BookingService orchestrates conflict validation and persistence for bookings.
type BookingService struct {
	bookings    persistence.BookingRepository
	eventTypes  persistence.EventTypeRepository
	schedules   persistence.ScheduleRepository
	users       persistence.UserRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
	idGenerator func() string
	now         func() time.Time
}

// NewBookingService wires dependencies for booking operations. The cache may
// be nil; booking lists are then always served from the store.
func NewBookingService(
	bookings persistence.BookingRepository,
	eventTypes persistence.EventTypeRepository,
	schedules persistence.ScheduleRepository,
	users persistence.UserRepository,
	bookingCache cache.Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
	idGenerator func() string,
	now func() time.Time,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		eventTypes:  eventTypes,
		schedules:   schedules,
		users:       users,
		cache:       bookingCache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateBooking runs the full validation sequence and persists a confirmed
// booking. Each failure carries a distinct reason; the checks short-circuit
// on the first one that fails.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (persistence.Booking, error) {
	if s == nil || s.bookings == nil {
		return persistence.Booking{}, fmt.Errorf("booking repository not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.BookerName) == "" {
		vErr.add("booker_name", "name is required")
	}
	if strings.TrimSpace(input.BookerEmail) == "" {
		vErr.add("booker_email", "email is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if vErr.HasErrors() {
		return persistence.Booking{}, vErr
	}

	eventType, err := s.eventTypes.GetEventType(ctx, input.EventTypeID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "Event type")
	}
	if _, err := s.users.GetUser(ctx, eventType.UserID); err != nil {
		return persistence.Booking{}, mapRepoError(err, "User")
	}

	duration := time.Duration(eventType.DurationMinutes) * time.Minute
	end := input.Start.Add(duration)

	if reason, err := s.checkSlot(ctx, eventType, input.Start, end, ""); err != nil {
		return persistence.Booking{}, err
	} else if reason != "" {
		return persistence.Booking{}, &ConflictError{Reason: reason}
	}

	if locationNeedsValue[eventType.LocationKind] && strings.TrimSpace(eventType.LocationValue) == "" {
		vErr.add("location", "A location is required for this event type")
		return persistence.Booking{}, vErr
	}

	createdAt := s.now()
	booking := persistence.Booking{
		ID:            s.idGenerator(),
		EventTypeID:   eventType.ID,
		UserID:        eventType.UserID,
		BookerName:    strings.TrimSpace(input.BookerName),
		BookerEmail:   strings.TrimSpace(input.BookerEmail),
		BookerPhone:   strings.TrimSpace(input.BookerPhone),
		Start:         input.Start,
		End:           end,
		Timezone:      input.Timezone,
		LocationKind:  eventType.LocationKind,
		LocationValue: eventType.LocationValue,
		GuestEmails:   normalizeEmails(input.GuestEmails),
		Notes:         input.Notes,
		Status:        persistence.StatusConfirmed,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if booking.Timezone == "" {
		booking.Timezone = "UTC"
	}

	buffer := time.Duration(eventType.BufferMinutes) * time.Minute
	if err := s.bookings.CreateConfirmed(ctx, booking, buffer); err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return persistence.Booking{}, &ConflictError{Reason: "This time slot is already booked"}
		}
		return persistence.Booking{}, err
	}

	s.invalidateBookingCache(ctx, booking.UserID)
	return booking, nil
}

// IsSlotAvailable runs the create-time checks without mutating anything.
// An empty reason means the slot is open.
func (s *BookingService) IsSlotAvailable(ctx context.Context, eventTypeID string, start, end time.Time) (bool, string, error) {
	eventType, err := s.eventTypes.GetEventType(ctx, eventTypeID)
	if err != nil {
		return false, "", mapRepoError(err, "Event type")
	}
	reason, err := s.checkSlot(ctx, eventType, start, end, "")
	if err != nil {
		var invalid *InvalidStateError
		if errors.As(err, &invalid) {
			return false, invalid.Reason, nil
		}
		return false, "", err
	}
	return reason == "", reason, nil
}

// checkSlot evaluates the ordered create-time conditions. It returns a
// rejection reason, or an InvalidStateError for an unbookable event type.
func (s *BookingService) checkSlot(ctx context.Context, eventType persistence.EventType, start, end time.Time, excludeBookingID string) (string, error) {
	if !eventType.IsActive {
		return "", &InvalidStateError{Reason: "This event type is not accepting bookings"}
	}
	if eventType.ScheduleID == nil {
		return "", &InvalidStateError{Reason: "This event type has no availability schedule"}
	}

	if !start.After(s.now()) {
		return "Cannot book in the past", nil
	}

	duration := time.Duration(eventType.DurationMinutes) * time.Minute
	actual := end.Sub(start)
	if actual < duration-durationTolerance || actual > duration+durationTolerance {
		return fmt.Sprintf("Booking duration must be %d minutes", eventType.DurationMinutes), nil
	}

	schedule, err := s.schedules.GetSchedule(ctx, *eventType.ScheduleID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return "", &InvalidStateError{Reason: "This event type has no availability schedule"}
		}
		return "", err
	}

	ranges := scheduleRanges(schedule)
	dayOfWeek := int(start.Weekday())
	if len(slots.ForDay(dayOfWeek, ranges)) == 0 {
		return "No availability on this day of week", nil
	}
	if !slots.WithinAvailability(dayOfWeek, slots.MinuteOfDay(start), slots.MinuteOfDay(end), ranges) {
		return "Booking time is outside available slots for this day", nil
	}

	overlapping, err := s.bookings.CountConfirmedOverlapping(ctx, persistence.OverlapQuery{
		UserID:           eventType.UserID,
		Start:            start,
		End:              end,
		ExcludeBookingID: excludeBookingID,
	})
	if err != nil {
		return "", err
	}
	if overlapping > 0 {
		return "This time slot is already booked", nil
	}

	if eventType.MaxBookingsPerDay != nil {
		dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		count, err := s.bookings.CountConfirmedStartingBetween(ctx, eventType.ID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return "", err
		}
		if count >= *eventType.MaxBookingsPerDay {
			return "This day is fully booked for this event type", nil
		}
	}

	if eventType.BufferMinutes > 0 {
		buffer := time.Duration(eventType.BufferMinutes) * time.Minute
		buffered, err := s.bookings.CountConfirmedOverlapping(ctx, persistence.OverlapQuery{
			UserID:           eventType.UserID,
			Start:            start.Add(-buffer),
			End:              end.Add(buffer),
			ExcludeBookingID: excludeBookingID,
		})
		if err != nil {
			return "", err
		}
		if buffered > 0 {
			return "This time conflicts with the buffer around another booking", nil
		}
	}

	return "", nil
}

// RescheduleBooking moves a booking to a new start. It re-checks ownership
// and overlap against other bookings of the same event type, but not slot
// membership or the daily cap.
func (s *BookingService) RescheduleBooking(ctx context.Context, input RescheduleBookingInput) (persistence.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, input.BookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}
	if !strings.EqualFold(booking.BookerEmail, strings.TrimSpace(input.BookerEmail)) {
		return persistence.Booking{}, ErrForbidden
	}
	if booking.Status == persistence.StatusCancelled {
		return persistence.Booking{}, &InvalidStateError{Reason: "Cannot reschedule a cancelled booking"}
	}

	eventType, err := s.eventTypes.GetEventType(ctx, booking.EventTypeID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "Event type")
	}

	duration := booking.End.Sub(booking.Start)
	newEnd := input.NewStart.Add(duration)
	buffer := time.Duration(eventType.BufferMinutes) * time.Minute

	overlapping, err := s.bookings.CountConfirmedOverlapping(ctx, persistence.OverlapQuery{
		EventTypeID:      eventType.ID,
		Start:            input.NewStart,
		End:              newEnd,
		Buffer:           buffer,
		ExcludeBookingID: booking.ID,
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	if overlapping > 0 {
		return persistence.Booking{}, &ConflictError{Reason: "This time slot is already booked"}
	}

	booking.Start = input.NewStart
	booking.End = newEnd
	booking.Status = persistence.StatusRescheduled
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		prefix := fmt.Sprintf("[Rescheduled] %s", reason)
		if booking.Notes != "" {
			booking.Notes = prefix + "\n" + booking.Notes
		} else {
			booking.Notes = prefix
		}
	}
	booking.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}

	s.invalidateBookingCache(ctx, booking.UserID)
	return booking, nil
}

// CancelBooking marks a booking cancelled on behalf of its owner. Past
// bookings and already-cancelled bookings are rejected.
func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) (persistence.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, input.BookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}
	if !strings.EqualFold(booking.BookerEmail, strings.TrimSpace(input.BookerEmail)) {
		return persistence.Booking{}, ErrForbidden
	}
	if booking.Status == persistence.StatusCancelled {
		return persistence.Booking{}, &InvalidStateError{Reason: "Booking is already cancelled"}
	}
	if !booking.Start.After(s.now()) {
		return persistence.Booking{}, &InvalidStateError{Reason: "Cannot cancel a booking that has already started"}
	}

	booking.Status = persistence.StatusCancelled
	booking.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}

	s.invalidateBookingCache(ctx, booking.UserID)
	return booking, nil
}

// GetBooking fetches a booking owned by the given host.
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID string) (persistence.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}
	if booking.UserID != userID {
		return persistence.Booking{}, ErrForbidden
	}
	return booking, nil
}

// ListBookings returns a host's bookings, newest start first. The unfiltered
// list is served read-through from the cache when one is configured.
func (s *BookingService) ListBookings(ctx context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	unfiltered := filter == persistence.BookingFilter{}

	if unfiltered && s.cache != nil {
		if raw, ok := s.cache.Get(ctx, bookingCacheKey(userID)); ok {
			var cached []persistence.Booking
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding corrupt booking cache entry", "user_id", userID)
			s.cache.Invalidate(ctx, bookingCacheKey(userID))
		}
	}

	listed, err := s.bookings.ListBookings(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	if unfiltered && s.cache != nil {
		if raw, err := json.Marshal(listed); err == nil {
			s.cache.Set(ctx, bookingCacheKey(userID), raw, s.cacheTTL)
		}
	}
	return listed, nil
}

// UpcomingBookings returns confirmed bookings starting at or after the
// current time, soonest first.
func (s *BookingService) UpcomingBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	now := s.now()
	upcoming, err := s.bookings.ListBookings(ctx, userID, persistence.BookingFilter{
		Status: persistence.StatusConfirmed,
		From:   &now,
	})
	if err != nil {
		return nil, err
	}
	// ListBookings orders newest-first; the agenda view wants soonest-first.
	reverse(upcoming)
	return upcoming, nil
}

// PastBookings returns bookings that started before the current time.
func (s *BookingService) PastBookings(ctx context.Context, userID string) ([]persistence.Booking, error) {
	now := s.now()
	return s.bookings.ListBookings(ctx, userID, persistence.BookingFilter{To: &now})
}

// UpdateBookingLocation lets the host change where a single meeting happens
// without touching its event type.
func (s *BookingService) UpdateBookingLocation(ctx context.Context, userID, bookingID, kind, value string) (persistence.Booking, error) {
	booking, err := s.GetBooking(ctx, userID, bookingID)
	if err != nil {
		return persistence.Booking{}, err
	}

	vErr := &ValidationError{}
	if !locationKinds[kind] {
		vErr.add("location_kind", "unknown location kind")
	} else if locationNeedsValue[kind] && strings.TrimSpace(value) == "" {
		vErr.add("location_value", "location details are required for this kind")
	}
	if vErr.HasErrors() {
		return persistence.Booking{}, vErr
	}

	booking.LocationKind = kind
	booking.LocationValue = value
	booking.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}

	s.invalidateBookingCache(ctx, booking.UserID)
	return booking, nil
}

// AddGuests appends guest emails to a booking, skipping duplicates.
func (s *BookingService) AddGuests(ctx context.Context, userID, bookingID string, emails []string) (persistence.Booking, error) {
	booking, err := s.GetBooking(ctx, userID, bookingID)
	if err != nil {
		return persistence.Booking{}, err
	}

	added := normalizeEmails(emails)
	if len(added) == 0 {
		vErr := &ValidationError{}
		vErr.add("guest_emails", "at least one guest email is required")
		return persistence.Booking{}, vErr
	}

	existing := make(map[string]bool, len(booking.GuestEmails))
	for _, email := range booking.GuestEmails {
		existing[strings.ToLower(email)] = true
	}
	for _, email := range added {
		if !existing[strings.ToLower(email)] {
			booking.GuestEmails = append(booking.GuestEmails, email)
			existing[strings.ToLower(email)] = true
		}
	}
	booking.UpdatedAt = s.now()

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return persistence.Booking{}, mapRepoError(err, "Booking")
	}

	s.invalidateBookingCache(ctx, booking.UserID)
	return booking, nil
}

func (s *BookingService) invalidateBookingCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, bookingCacheKey(userID))
}

func bookingCacheKey(userID string) string {
	return "bookings:" + userID
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" || !strings.Contains(email, "@") {
			continue
		}
		key := strings.ToLower(email)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, email)
	}
	return out
}

func reverse(bookings []persistence.Booking) {
	for i, j := 0, len(bookings)-1; i < j; i, j = i+1, j-1 {
		bookings[i], bookings[j] = bookings[j], bookings[i]
	}
}
