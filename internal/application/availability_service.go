package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

// AvailabilityService computes bookable time windows for an event type.
type AvailabilityService struct {
	eventTypes persistence.EventTypeRepository
	schedules  persistence.ScheduleRepository
	bookings   persistence.BookingRepository
	step       time.Duration
	now        func() time.Time
}

// NewAvailabilityService wires dependencies for slot generation. A step of
// zero selects the default 15-minute spacing.
func NewAvailabilityService(
	eventTypes persistence.EventTypeRepository,
	schedules persistence.ScheduleRepository,
	bookings persistence.BookingRepository,
	step time.Duration,
	now func() time.Time,
) *AvailabilityService {
	if step <= 0 {
		step = slots.DefaultStep
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		eventTypes: eventTypes,
		schedules:  schedules,
		bookings:   bookings,
		step:       step,
		now:        now,
	}
}

// GenerateSlots returns the open windows for an event type on the given
// calendar date. An inactive event type, or one without a linked schedule,
// yields an empty list rather than an error; an unknown event type is
// reported as not found.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, eventTypeID string, date time.Time) ([]slots.Window, error) {
	if s == nil || s.eventTypes == nil {
		return nil, fmt.Errorf("event type repository not configured")
	}

	eventType, err := s.eventTypes.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, mapRepoError(err, "Event type")
	}
	return s.generateForEventType(ctx, eventType, date)
}

// GenerateSlotsForEventType is GenerateSlots for a caller that already holds
// the event type, such as the public booking page handler.
func (s *AvailabilityService) GenerateSlotsForEventType(ctx context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error) {
	return s.generateForEventType(ctx, eventType, date)
}

func (s *AvailabilityService) generateForEventType(ctx context.Context, eventType persistence.EventType, date time.Time) ([]slots.Window, error) {
	if !eventType.IsActive || eventType.ScheduleID == nil {
		return []slots.Window{}, nil
	}

	schedule, err := s.schedules.GetSchedule(ctx, *eventType.ScheduleID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return []slots.Window{}, nil
		}
		return nil, err
	}

	busy, err := s.confirmedIntervals(ctx, eventType.UserID, date)
	if err != nil {
		return nil, err
	}

	windows := slots.Generate(
		date,
		scheduleRanges(schedule),
		time.Duration(eventType.DurationMinutes)*time.Minute,
		time.Duration(eventType.BufferMinutes)*time.Minute,
		s.step,
		busy,
		s.now(),
	)
	if windows == nil {
		windows = []slots.Window{}
	}
	return windows, nil
}

// confirmedIntervals loads the user's confirmed bookings whose start falls
// within the given calendar day.
func (s *AvailabilityService) confirmedIntervals(ctx context.Context, userID string, date time.Time) ([]slots.Interval, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	bookings, err := s.bookings.ListConfirmedStartingBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	intervals := make([]slots.Interval, len(bookings))
	for i, booking := range bookings {
		intervals[i] = slots.Interval{Start: booking.Start, End: booking.End}
	}
	return intervals, nil
}
