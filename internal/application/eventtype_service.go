package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Supported meeting location kinds.
const (
	LocationMeet     = "meet"
	LocationInPerson = "in-person"
	LocationPhone    = "phone"
)

var locationKinds = map[string]bool{
	LocationMeet:     true,
	LocationInPerson: true,
	LocationPhone:    true,
}

// locationNeedsValue lists the kinds whose value field cannot be empty: an
// address or a phone number.
var locationNeedsValue = map[string]bool{
	LocationInPerson: true,
	LocationPhone:    true,
}

// EventTypeService orchestrates validation and persistence for bookable meeting templates.
type EventTypeService struct {
	eventTypes  persistence.EventTypeRepository
	schedules   persistence.ScheduleRepository
	bookings    persistence.BookingRepository
	idGenerator func() string
	now         func() time.Time
}

// NewEventTypeService wires dependencies for event type operations.
func NewEventTypeService(
	eventTypes persistence.EventTypeRepository,
	schedules persistence.ScheduleRepository,
	bookings persistence.BookingRepository,
	idGenerator func() string,
	now func() time.Time,
) *EventTypeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventTypeService{
		eventTypes:  eventTypes,
		schedules:   schedules,
		bookings:    bookings,
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateEventType validates the request before delegating to persistence.
// New event types start active.
func (s *EventTypeService) CreateEventType(ctx context.Context, userID string, input CreateEventTypeInput) (persistence.EventType, error) {
	if s == nil || s.eventTypes == nil {
		return persistence.EventType{}, fmt.Errorf("event type repository not configured")
	}

	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))

	vErr := &ValidationError{}
	validateEventTypeCore(input.Title, input.Slug, input.DurationMinutes, input.BufferMinutes, input.MaxBookingsPerDay, input.LocationKind, input.LocationValue, vErr)
	if vErr.HasErrors() {
		return persistence.EventType{}, vErr
	}

	if _, err := s.eventTypes.GetEventTypeBySlug(ctx, userID, input.Slug); err == nil {
		return persistence.EventType{}, ErrAlreadyExists
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.EventType{}, err
	}

	if err := s.ensureScheduleFits(ctx, userID, input.ScheduleID, input.DurationMinutes); err != nil {
		return persistence.EventType{}, err
	}

	createdAt := s.now()
	eventType := persistence.EventType{
		ID:                s.idGenerator(),
		UserID:            userID,
		Title:             strings.TrimSpace(input.Title),
		Slug:              input.Slug,
		Description:       input.Description,
		DurationMinutes:   input.DurationMinutes,
		BufferMinutes:     input.BufferMinutes,
		MaxBookingsPerDay: input.MaxBookingsPerDay,
		LocationKind:      input.LocationKind,
		LocationValue:     input.LocationValue,
		IsActive:          true,
		ScheduleID:        input.ScheduleID,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	if err := s.eventTypes.CreateEventType(ctx, eventType); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.EventType{}, ErrAlreadyExists
		}
		return persistence.EventType{}, err
	}
	return eventType, nil
}

// GetEventType fetches an event type owned by the given user.
func (s *EventTypeService) GetEventType(ctx context.Context, userID, eventTypeID string) (persistence.EventType, error) {
	eventType, err := s.eventTypes.GetEventType(ctx, eventTypeID)
	if err != nil {
		return persistence.EventType{}, mapRepoError(err, "Event type")
	}
	if eventType.UserID != userID {
		return persistence.EventType{}, ErrForbidden
	}
	return eventType, nil
}

// GetEventTypeBySlug fetches an event type by its owner and public slug.
// Used by the public booking page, so no ownership check applies.
func (s *EventTypeService) GetEventTypeBySlug(ctx context.Context, userID, slug string) (persistence.EventType, error) {
	eventType, err := s.eventTypes.GetEventTypeBySlug(ctx, userID, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return persistence.EventType{}, mapRepoError(err, "Event type")
	}
	return eventType, nil
}

// ListEventTypes enumerates a user's event types, newest first.
func (s *EventTypeService) ListEventTypes(ctx context.Context, userID string) ([]persistence.EventType, error) {
	return s.eventTypes.ListEventTypes(ctx, userID)
}

// UpdateEventType replaces the mutable fields of an event type.
func (s *EventTypeService) UpdateEventType(ctx context.Context, userID, eventTypeID string, input UpdateEventTypeInput) (persistence.EventType, error) {
	existing, err := s.GetEventType(ctx, userID, eventTypeID)
	if err != nil {
		return persistence.EventType{}, err
	}

	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))

	vErr := &ValidationError{}
	validateEventTypeCore(input.Title, input.Slug, input.DurationMinutes, input.BufferMinutes, input.MaxBookingsPerDay, input.LocationKind, input.LocationValue, vErr)
	if vErr.HasErrors() {
		return persistence.EventType{}, vErr
	}

	if input.Slug != existing.Slug {
		if _, err := s.eventTypes.GetEventTypeBySlug(ctx, userID, input.Slug); err == nil {
			return persistence.EventType{}, ErrAlreadyExists
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return persistence.EventType{}, err
		}
	}

	if err := s.ensureScheduleFits(ctx, userID, input.ScheduleID, input.DurationMinutes); err != nil {
		return persistence.EventType{}, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Slug = input.Slug
	existing.Description = input.Description
	existing.DurationMinutes = input.DurationMinutes
	existing.BufferMinutes = input.BufferMinutes
	existing.MaxBookingsPerDay = input.MaxBookingsPerDay
	existing.LocationKind = input.LocationKind
	existing.LocationValue = input.LocationValue
	existing.IsActive = input.IsActive
	existing.ScheduleID = input.ScheduleID
	existing.UpdatedAt = s.now()

	if err := s.eventTypes.UpdateEventType(ctx, existing); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.EventType{}, ErrAlreadyExists
		}
		return persistence.EventType{}, mapRepoError(err, "Event type")
	}
	return existing, nil
}

// DeleteEventType removes an event type unless confirmed bookings still
// reference it in the future.
func (s *EventTypeService) DeleteEventType(ctx context.Context, userID, eventTypeID string) error {
	if _, err := s.GetEventType(ctx, userID, eventTypeID); err != nil {
		return err
	}

	upcoming, err := s.bookings.CountUpcomingConfirmed(ctx, eventTypeID, s.now())
	if err != nil {
		return err
	}
	if upcoming > 0 {
		return &InvalidStateError{Reason: "Cannot delete an event type with upcoming bookings"}
	}

	if err := s.eventTypes.DeleteEventType(ctx, eventTypeID); err != nil {
		return mapRepoError(err, "Event type")
	}
	return nil
}

// ensureScheduleFits confirms the referenced schedule belongs to the user and
// can hold at least one meeting of the requested duration.
func (s *EventTypeService) ensureScheduleFits(ctx context.Context, userID string, scheduleID *string, durationMinutes int) error {
	if scheduleID == nil || s.schedules == nil {
		return nil
	}
	schedule, err := s.schedules.GetSchedule(ctx, *scheduleID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("schedule_id", "schedule does not exist")
			return vErr
		}
		return err
	}
	if schedule.UserID != userID {
		return ErrForbidden
	}
	if !slots.FitsDuration(time.Duration(durationMinutes)*time.Minute, scheduleRanges(schedule)) {
		vErr := &ValidationError{}
		vErr.add("duration_minutes", "no availability slot is long enough for this duration")
		return vErr
	}
	return nil
}

func validateEventTypeCore(title, slug string, durationMinutes, bufferMinutes int, maxPerDay *int, locationKind, locationValue string, vErr *ValidationError) {
	if strings.TrimSpace(title) == "" {
		vErr.add("title", "title is required")
	}

	if slug == "" {
		vErr.add("slug", "slug is required")
	} else if !slugPattern.MatchString(slug) {
		vErr.add("slug", "slug may only contain lowercase letters, digits and hyphens")
	}

	if durationMinutes < 15 || durationMinutes > 480 {
		vErr.add("duration_minutes", "duration must be between 15 and 480 minutes")
	}
	if bufferMinutes < 0 || bufferMinutes > 120 {
		vErr.add("buffer_minutes", "buffer must be between 0 and 120 minutes")
	}
	if maxPerDay != nil && *maxPerDay < 1 {
		vErr.add("max_bookings_per_day", "daily limit must be at least 1")
	}

	if !locationKinds[locationKind] {
		vErr.add("location_kind", "unknown location kind")
	} else if locationNeedsValue[locationKind] && strings.TrimSpace(locationValue) == "" {
		vErr.add("location_value", "location details are required for this kind")
	}
}
