package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/meetsync/internal/persistence"
)

// EventTypeRepository implements persistence.EventTypeRepository on SQLite.
type EventTypeRepository struct {
	db *DB
}

// NewEventTypeRepository wires an event type repository to the shared handle.
func NewEventTypeRepository(db *DB) *EventTypeRepository {
	return &EventTypeRepository{db: db}
}

const eventTypeColumns = `
	id, user_id, title, slug, description, duration_minutes, buffer_minutes,
	max_bookings_per_day, location_kind, location_value, is_active, schedule_id,
	created_at, updated_at
`

func (r *EventTypeRepository) CreateEventType(ctx context.Context, eventType persistence.EventType) error {
	query := `
		INSERT INTO event_types (` + eventTypeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.sql.ExecContext(ctx, query,
		eventType.ID,
		eventType.UserID,
		eventType.Title,
		eventType.Slug,
		eventType.Description,
		eventType.DurationMinutes,
		eventType.BufferMinutes,
		nullableInt(eventType.MaxBookingsPerDay),
		eventType.LocationKind,
		eventType.LocationValue,
		boolToInt(eventType.IsActive),
		nullableString(eventType.ScheduleID),
		formatTime(eventType.CreatedAt),
		formatTime(eventType.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("create event type: %w", err)
	}
	return nil
}

func (r *EventTypeRepository) UpdateEventType(ctx context.Context, eventType persistence.EventType) error {
	query := `
		UPDATE event_types
		SET title = ?, slug = ?, description = ?, duration_minutes = ?, buffer_minutes = ?,
		    max_bookings_per_day = ?, location_kind = ?, location_value = ?, is_active = ?,
		    schedule_id = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.sql.ExecContext(ctx, query,
		eventType.Title,
		eventType.Slug,
		eventType.Description,
		eventType.DurationMinutes,
		eventType.BufferMinutes,
		nullableInt(eventType.MaxBookingsPerDay),
		eventType.LocationKind,
		eventType.LocationValue,
		boolToInt(eventType.IsActive),
		nullableString(eventType.ScheduleID),
		formatTime(eventType.UpdatedAt),
		eventType.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("update event type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event type rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *EventTypeRepository) GetEventType(ctx context.Context, id string) (persistence.EventType, error) {
	query := "SELECT " + eventTypeColumns + " FROM event_types WHERE id = ?"
	return scanEventType(r.db.sql.QueryRowContext(ctx, query, id))
}

func (r *EventTypeRepository) GetEventTypeBySlug(ctx context.Context, userID, slug string) (persistence.EventType, error) {
	query := "SELECT " + eventTypeColumns + " FROM event_types WHERE user_id = ? AND slug = ?"
	return scanEventType(r.db.sql.QueryRowContext(ctx, query, userID, slug))
}

// ListEventTypes returns the user's event types, newest first.
func (r *EventTypeRepository) ListEventTypes(ctx context.Context, userID string) ([]persistence.EventType, error) {
	query := "SELECT " + eventTypeColumns + " FROM event_types WHERE user_id = ? ORDER BY created_at DESC, id ASC"
	rows, err := r.db.sql.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	defer rows.Close()

	var eventTypes []persistence.EventType
	for rows.Next() {
		eventType, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		eventTypes = append(eventTypes, eventType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return eventTypes, nil
}

func (r *EventTypeRepository) DeleteEventType(ctx context.Context, id string) error {
	result, err := r.db.sql.ExecContext(ctx, "DELETE FROM event_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete event type: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event type rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanEventType(row rowScanner) (persistence.EventType, error) {
	var (
		eventType            persistence.EventType
		maxPerDay            sql.NullInt64
		scheduleID           sql.NullString
		isActive             int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&eventType.ID,
		&eventType.UserID,
		&eventType.Title,
		&eventType.Slug,
		&eventType.Description,
		&eventType.DurationMinutes,
		&eventType.BufferMinutes,
		&maxPerDay,
		&eventType.LocationKind,
		&eventType.LocationValue,
		&isActive,
		&scheduleID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.EventType{}, persistence.ErrNotFound
		}
		return persistence.EventType{}, fmt.Errorf("scan event type: %w", err)
	}

	if maxPerDay.Valid {
		value := int(maxPerDay.Int64)
		eventType.MaxBookingsPerDay = &value
	}
	if scheduleID.Valid {
		value := scheduleID.String
		eventType.ScheduleID = &value
	}
	eventType.IsActive = isActive != 0
	if eventType.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.EventType{}, err
	}
	if eventType.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.EventType{}, err
	}
	return eventType, nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
