package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsync/internal/persistence"
	"github.com/example/meetsync/internal/slots"
)

// defaultWorkingHours is the slot set seeded for a brand-new host: Monday
// through Friday, 09:00 to 17:00.
var defaultWorkingHours = []SlotInput{
	{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	{DayOfWeek: 2, StartTime: "09:00", EndTime: "17:00"},
	{DayOfWeek: 3, StartTime: "09:00", EndTime: "17:00"},
	{DayOfWeek: 4, StartTime: "09:00", EndTime: "17:00"},
	{DayOfWeek: 5, StartTime: "09:00", EndTime: "17:00"},
}

// ScheduleService orchestrates validation and persistence for availability schedules.
type ScheduleService struct {
	schedules   persistence.ScheduleRepository
	idGenerator func() string
	now         func() time.Time
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules persistence.ScheduleRepository, idGenerator func() string, now func() time.Time) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{schedules: schedules, idGenerator: idGenerator, now: now}
}

// CreateSchedule validates the request before delegating to persistence. The
// first schedule a user creates always becomes their default; a later
// schedule created with IsDefault set displaces the current default.
func (s *ScheduleService) CreateSchedule(ctx context.Context, userID string, input CreateScheduleInput) (persistence.Schedule, error) {
	if s == nil || s.schedules == nil {
		return persistence.Schedule{}, fmt.Errorf("schedule repository not configured")
	}

	vErr := &ValidationError{}
	validateScheduleCore(input.Name, input.Timezone, input.Slots, vErr)
	if vErr.HasErrors() {
		return persistence.Schedule{}, vErr
	}

	count, err := s.schedules.CountSchedules(ctx, userID)
	if err != nil {
		return persistence.Schedule{}, err
	}
	isDefault := input.IsDefault || count == 0

	createdAt := s.now()
	schedule := persistence.Schedule{
		ID:        s.idGenerator(),
		UserID:    userID,
		Name:      strings.TrimSpace(input.Name),
		Timezone:  input.Timezone,
		IsDefault: isDefault,
		Slots:     buildSlots(s.idGenerator, input.Slots),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	for i := range schedule.Slots {
		schedule.Slots[i].ScheduleID = schedule.ID
	}

	if isDefault {
		if err := s.schedules.ClearDefault(ctx, userID, schedule.ID); err != nil {
			return persistence.Schedule{}, err
		}
	}
	if err := s.schedules.CreateSchedule(ctx, schedule); err != nil {
		return persistence.Schedule{}, mapRepoError(err, "Schedule")
	}
	return schedule, nil
}

// GetSchedule fetches a schedule owned by the given user.
func (s *ScheduleService) GetSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return persistence.Schedule{}, mapRepoError(err, "Schedule")
	}
	if schedule.UserID != userID {
		return persistence.Schedule{}, ErrForbidden
	}
	return schedule, nil
}

// ListSchedules enumerates a user's schedules, default first.
func (s *ScheduleService) ListSchedules(ctx context.Context, userID string) ([]persistence.Schedule, error) {
	return s.schedules.ListSchedules(ctx, userID)
}

// UpdateSchedule replaces the schedule's name, timezone and slot set.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, userID, scheduleID string, input UpdateScheduleInput) (persistence.Schedule, error) {
	existing, err := s.GetSchedule(ctx, userID, scheduleID)
	if err != nil {
		return persistence.Schedule{}, err
	}

	vErr := &ValidationError{}
	validateScheduleCore(input.Name, input.Timezone, input.Slots, vErr)
	if vErr.HasErrors() {
		return persistence.Schedule{}, vErr
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Timezone = input.Timezone
	existing.Slots = buildSlots(s.idGenerator, input.Slots)
	for i := range existing.Slots {
		existing.Slots[i].ScheduleID = existing.ID
	}
	existing.UpdatedAt = s.now()

	if input.IsDefault && !existing.IsDefault {
		if err := s.schedules.ClearDefault(ctx, userID, existing.ID); err != nil {
			return persistence.Schedule{}, err
		}
		existing.IsDefault = true
	}

	if err := s.schedules.UpdateSchedule(ctx, existing); err != nil {
		return persistence.Schedule{}, mapRepoError(err, "Schedule")
	}
	return existing, nil
}

// DuplicateSchedule copies a schedule and its slots under a new name. Copies
// are never created as the default.
func (s *ScheduleService) DuplicateSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	source, err := s.GetSchedule(ctx, userID, scheduleID)
	if err != nil {
		return persistence.Schedule{}, err
	}

	createdAt := s.now()
	copied := persistence.Schedule{
		ID:        s.idGenerator(),
		UserID:    userID,
		Name:      source.Name + " (copy)",
		Timezone:  source.Timezone,
		IsDefault: false,
		Slots:     make([]persistence.ScheduleSlot, len(source.Slots)),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	for i, slot := range source.Slots {
		slot.ID = s.idGenerator()
		slot.ScheduleID = copied.ID
		copied.Slots[i] = slot
	}

	if err := s.schedules.CreateSchedule(ctx, copied); err != nil {
		return persistence.Schedule{}, mapRepoError(err, "Schedule")
	}
	return copied, nil
}

// SetDefaultSchedule marks the schedule as the user's default, clearing the
// flag from any other schedule.
func (s *ScheduleService) SetDefaultSchedule(ctx context.Context, userID, scheduleID string) (persistence.Schedule, error) {
	schedule, err := s.GetSchedule(ctx, userID, scheduleID)
	if err != nil {
		return persistence.Schedule{}, err
	}

	if err := s.schedules.ClearDefault(ctx, userID, scheduleID); err != nil {
		return persistence.Schedule{}, err
	}
	if err := s.schedules.SetDefault(ctx, scheduleID); err != nil {
		return persistence.Schedule{}, mapRepoError(err, "Schedule")
	}
	schedule.IsDefault = true
	return schedule, nil
}

// DeleteSchedule removes a schedule. Deleting the default promotes the
// oldest remaining schedule; the user's last schedule cannot be deleted.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, userID, scheduleID string) error {
	schedule, err := s.GetSchedule(ctx, userID, scheduleID)
	if err != nil {
		return err
	}

	count, err := s.schedules.CountSchedules(ctx, userID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return &InvalidStateError{Reason: "Cannot delete the only schedule"}
	}

	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return mapRepoError(err, "Schedule")
	}

	if schedule.IsDefault {
		oldest, err := s.schedules.OldestSchedule(ctx, userID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := s.schedules.SetDefault(ctx, oldest.ID); err != nil {
			return mapRepoError(err, "Schedule")
		}
	}
	return nil
}

// EnsureDefaultSchedule returns the user's default schedule, seeding a
// "Working Hours" schedule when the user has none at all.
func (s *ScheduleService) EnsureDefaultSchedule(ctx context.Context, userID string) (persistence.Schedule, error) {
	listed, err := s.schedules.ListSchedules(ctx, userID)
	if err != nil {
		return persistence.Schedule{}, err
	}
	for _, schedule := range listed {
		if schedule.IsDefault {
			return schedule, nil
		}
	}
	if len(listed) > 0 {
		return listed[0], nil
	}

	return s.CreateSchedule(ctx, userID, CreateScheduleInput{
		Name:      "Working Hours",
		Timezone:  "UTC",
		IsDefault: true,
		Slots:     defaultWorkingHours,
	})
}

func buildSlots(idGenerator func() string, inputs []SlotInput) []persistence.ScheduleSlot {
	built := make([]persistence.ScheduleSlot, len(inputs))
	for i, input := range inputs {
		built[i] = persistence.ScheduleSlot{
			ID:        idGenerator(),
			DayOfWeek: input.DayOfWeek,
			StartTime: input.StartTime,
			EndTime:   input.EndTime,
		}
	}
	return built
}

func validateScheduleCore(name, timezone string, slotInputs []SlotInput, vErr *ValidationError) {
	if strings.TrimSpace(name) == "" {
		vErr.add("name", "name is required")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		vErr.add("timezone", "timezone must be a valid IANA name")
	}
	if len(slotInputs) == 0 {
		vErr.add("slots", "at least one availability slot is required")
		return
	}

	perDay := make(map[int][]slots.Range)
	for i, input := range slotInputs {
		r := slots.Range{DayOfWeek: input.DayOfWeek, Start: input.StartTime, End: input.EndTime}
		if err := slots.ValidateRange(r); err != nil {
			vErr.add(fmt.Sprintf("slots[%d]", i), err.Error())
			continue
		}
		perDay[r.DayOfWeek] = append(perDay[r.DayOfWeek], r)
	}
	for _, dayRanges := range perDay {
		if first, second, ok := slots.OverlappingPair(dayRanges); ok {
			vErr.add("slots", fmt.Sprintf(
				"slots overlap on day %d: %s-%s and %s-%s",
				first.DayOfWeek, first.Start, first.End, second.Start, second.End,
			))
			break
		}
	}
}

// scheduleRanges flattens a schedule's slots into the generator's range form.
func scheduleRanges(schedule persistence.Schedule) []slots.Range {
	ranges := make([]slots.Range, len(schedule.Slots))
	for i, slot := range schedule.Slots {
		ranges[i] = slots.Range{DayOfWeek: slot.DayOfWeek, Start: slot.StartTime, End: slot.EndTime}
	}
	return ranges
}
