package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/meetsync/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository on SQLite.
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository wires a schedule repository to the shared handle.
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO schedules (id, user_id, name, timezone, is_default, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			schedule.ID,
			schedule.UserID,
			schedule.Name,
			schedule.Timezone,
			boolToInt(schedule.IsDefault),
			formatTime(schedule.CreatedAt),
			formatTime(schedule.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
		return insertSlots(ctx, tx, schedule.ID, schedule.Slots)
	})
}

// UpdateSchedule rewrites the schedule row and replaces its full slot set.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE schedules SET name = ?, timezone = ?, is_default = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := tx.ExecContext(ctx, query,
			schedule.Name,
			schedule.Timezone,
			boolToInt(schedule.IsDefault),
			formatTime(schedule.UpdatedAt),
			schedule.ID,
		)
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update schedule rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_slots WHERE schedule_id = ?", schedule.ID); err != nil {
			return fmt.Errorf("clear schedule slots: %w", err)
		}
		return insertSlots(ctx, tx, schedule.ID, schedule.Slots)
	})
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	query := `
		SELECT id, user_id, name, timezone, is_default, created_at, updated_at
		FROM schedules
		WHERE id = ?
	`
	schedule, err := r.scanSchedule(r.db.sql.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Schedule{}, err
	}
	slots, err := r.loadSlots(ctx, []string{schedule.ID})
	if err != nil {
		return persistence.Schedule{}, err
	}
	schedule.Slots = slots[schedule.ID]
	return schedule, nil
}

// ListSchedules returns the user's schedules, default first, then oldest.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, userID string) ([]persistence.Schedule, error) {
	query := `
		SELECT id, user_id, name, timezone, is_default, created_at, updated_at
		FROM schedules
		WHERE user_id = ?
		ORDER BY is_default DESC, created_at ASC, id ASC
	`
	rows, err := r.db.sql.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var (
		schedules []persistence.Schedule
		ids       []string
	)
	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
		ids = append(ids, schedule.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	slots, err := r.loadSlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].Slots = slots[schedules[i].ID]
	}
	return schedules, nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result, err := r.db.sql.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) CountSchedules(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	return count, nil
}

func (r *ScheduleRepository) ClearDefault(ctx context.Context, userID, exceptID string) error {
	_, err := r.db.sql.ExecContext(ctx,
		"UPDATE schedules SET is_default = 0 WHERE user_id = ? AND id <> ?", userID, exceptID)
	if err != nil {
		return fmt.Errorf("clear default schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) SetDefault(ctx context.Context, id string) error {
	result, err := r.db.sql.ExecContext(ctx, "UPDATE schedules SET is_default = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("set default schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set default schedule rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) OldestSchedule(ctx context.Context, userID string) (persistence.Schedule, error) {
	query := `
		SELECT id, user_id, name, timezone, is_default, created_at, updated_at
		FROM schedules
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	return r.scanSchedule(r.db.sql.QueryRowContext(ctx, query, userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ScheduleRepository) scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var (
		schedule             persistence.Schedule
		isDefault            int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.Name,
		&schedule.Timezone,
		&isDefault,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Schedule{}, persistence.ErrNotFound
		}
		return persistence.Schedule{}, fmt.Errorf("scan schedule: %w", err)
	}
	schedule.IsDefault = isDefault != 0
	if schedule.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Schedule{}, err
	}
	return schedule, nil
}

func (r *ScheduleRepository) loadSlots(ctx context.Context, scheduleIDs []string) (map[string][]persistence.ScheduleSlot, error) {
	placeholders := ""
	args := make([]any, 0, len(scheduleIDs))
	for i, id := range scheduleIDs {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, id)
	}

	query := `
		SELECT id, schedule_id, day_of_week, start_time, end_time
		FROM schedule_slots
		WHERE schedule_id IN (` + placeholders + `)
		ORDER BY day_of_week ASC, start_time ASC
	`
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load schedule slots: %w", err)
	}
	defer rows.Close()

	slots := make(map[string][]persistence.ScheduleSlot, len(scheduleIDs))
	for rows.Next() {
		var slot persistence.ScheduleSlot
		if err := rows.Scan(&slot.ID, &slot.ScheduleID, &slot.DayOfWeek, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, fmt.Errorf("scan schedule slot: %w", err)
		}
		slots[slot.ScheduleID] = append(slots[slot.ScheduleID], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load schedule slots: %w", err)
	}
	return slots, nil
}

func insertSlots(ctx context.Context, tx *sql.Tx, scheduleID string, slots []persistence.ScheduleSlot) error {
	for _, slot := range slots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_slots (id, schedule_id, day_of_week, start_time, end_time)
			VALUES (?, ?, ?, ?, ?)
		`, slot.ID, scheduleID, slot.DayOfWeek, slot.StartTime, slot.EndTime)
		if err != nil {
			return fmt.Errorf("insert schedule slot: %w", err)
		}
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
