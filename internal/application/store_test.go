package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/meetsync/internal/persistence"
)

// fakeStore is an in-memory implementation of the repository interfaces,
// shared by the service tests. Errors can be forced per entity via failWith.
type fakeStore struct {
	mu         sync.Mutex
	users      map[string]persistence.User
	schedules  map[string]persistence.Schedule
	eventTypes map[string]persistence.EventType
	bookings   map[string]persistence.Booking
	failWith   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]persistence.User),
		schedules:  make(map[string]persistence.Schedule),
		eventTypes: make(map[string]persistence.EventType),
		bookings:   make(map[string]persistence.Booking),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user persistence.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user persistence.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (persistence.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (f *fakeStore) FirstUser(_ context.Context) (persistence.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first persistence.User
	found := false
	for _, user := range f.users {
		if !found || user.CreatedAt.Before(first.CreatedAt) {
			first = user
			found = true
		}
	}
	if !found {
		return persistence.User{}, persistence.ErrNotFound
	}
	return first, nil
}

func (f *fakeStore) CreateSchedule(_ context.Context, schedule persistence.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, schedule persistence.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[schedule.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.schedules[schedule.ID] = schedule
	return nil
}

func (f *fakeStore) GetSchedule(_ context.Context, id string) (persistence.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return schedule, nil
}

func (f *fakeStore) ListSchedules(_ context.Context, userID string) ([]persistence.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []persistence.Schedule
	for _, schedule := range f.schedules {
		if schedule.UserID == userID {
			out = append(out, schedule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) DeleteSchedule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) CountSchedules(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, schedule := range f.schedules {
		if schedule.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ClearDefault(_ context.Context, userID, exceptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, schedule := range f.schedules {
		if schedule.UserID == userID && id != exceptID && schedule.IsDefault {
			schedule.IsDefault = false
			f.schedules[id] = schedule
		}
	}
	return nil
}

func (f *fakeStore) SetDefault(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.schedules[id]
	if !ok {
		return persistence.ErrNotFound
	}
	schedule.IsDefault = true
	f.schedules[id] = schedule
	return nil
}

func (f *fakeStore) OldestSchedule(_ context.Context, userID string) (persistence.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest persistence.Schedule
	found := false
	for _, schedule := range f.schedules {
		if schedule.UserID != userID {
			continue
		}
		if !found || schedule.CreatedAt.Before(oldest.CreatedAt) {
			oldest = schedule
			found = true
		}
	}
	if !found {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return oldest, nil
}

func (f *fakeStore) CreateEventType(_ context.Context, eventType persistence.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.eventTypes {
		if existing.UserID == eventType.UserID && existing.Slug == eventType.Slug {
			return persistence.ErrDuplicate
		}
	}
	f.eventTypes[eventType.ID] = eventType
	return nil
}

func (f *fakeStore) UpdateEventType(_ context.Context, eventType persistence.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.eventTypes[eventType.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.eventTypes[eventType.ID] = eventType
	return nil
}

func (f *fakeStore) GetEventType(_ context.Context, id string) (persistence.EventType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	eventType, ok := f.eventTypes[id]
	if !ok {
		return persistence.EventType{}, persistence.ErrNotFound
	}
	return eventType, nil
}

func (f *fakeStore) GetEventTypeBySlug(_ context.Context, userID, slug string) (persistence.EventType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, eventType := range f.eventTypes {
		if eventType.UserID == userID && eventType.Slug == slug {
			return eventType, nil
		}
	}
	return persistence.EventType{}, persistence.ErrNotFound
}

func (f *fakeStore) ListEventTypes(_ context.Context, userID string) ([]persistence.EventType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []persistence.EventType
	for _, eventType := range f.eventTypes {
		if eventType.UserID == userID {
			out = append(out, eventType)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) DeleteEventType(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.eventTypes[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.eventTypes, id)
	return nil
}

func (f *fakeStore) CreateConfirmed(_ context.Context, booking persistence.Booking, buffer time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.UserID != booking.UserID || existing.Status != persistence.StatusConfirmed {
			continue
		}
		if existing.Start.Before(booking.End.Add(buffer)) && booking.Start.Add(-buffer).Before(existing.End) {
			return persistence.ErrConflict
		}
	}
	booking.Status = persistence.StatusConfirmed
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeStore) UpdateBooking(_ context.Context, booking persistence.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (persistence.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (f *fakeStore) ListBookings(_ context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []persistence.Booking
	for _, booking := range f.bookings {
		if booking.UserID != userID {
			continue
		}
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		if filter.AttendeeName != "" && !strings.Contains(strings.ToLower(booking.BookerName), strings.ToLower(filter.AttendeeName)) {
			continue
		}
		if filter.AttendeeEmail != "" && !strings.EqualFold(booking.BookerEmail, filter.AttendeeEmail) {
			continue
		}
		if filter.EventTypeID != "" && booking.EventTypeID != filter.EventTypeID {
			continue
		}
		if filter.From != nil && booking.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !booking.Start.Before(*filter.To) {
			continue
		}
		if filter.BookingID != "" && booking.ID != filter.BookingID {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.After(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) ListConfirmedStartingBetween(_ context.Context, userID string, from, to time.Time) ([]persistence.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []persistence.Booking
	for _, booking := range f.bookings {
		if booking.UserID != userID || booking.Status != persistence.StatusConfirmed {
			continue
		}
		if booking.Start.Before(from) || !booking.Start.Before(to) {
			continue
		}
		out = append(out, booking)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (f *fakeStore) CountConfirmedOverlapping(_ context.Context, q persistence.OverlapQuery) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := q.Start.Add(-q.Buffer)
	end := q.End.Add(q.Buffer)
	count := 0
	for _, booking := range f.bookings {
		if booking.Status != persistence.StatusConfirmed {
			continue
		}
		if q.UserID != "" && booking.UserID != q.UserID {
			continue
		}
		if q.EventTypeID != "" && booking.EventTypeID != q.EventTypeID {
			continue
		}
		if q.ExcludeBookingID != "" && booking.ID == q.ExcludeBookingID {
			continue
		}
		if booking.Start.Before(end) && start.Before(booking.End) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountConfirmedStartingBetween(_ context.Context, eventTypeID string, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, booking := range f.bookings {
		if booking.EventTypeID != eventTypeID || booking.Status != persistence.StatusConfirmed {
			continue
		}
		if booking.Start.Before(from) || !booking.Start.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeStore) CountUpcomingConfirmed(_ context.Context, eventTypeID string, reference time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, booking := range f.bookings {
		if booking.EventTypeID == eventTypeID && booking.Status == persistence.StatusConfirmed && booking.Start.After(reference) {
			count++
		}
	}
	return count, nil
}
