package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/meetsync/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository on SQLite.
type BookingRepository struct {
	db *DB
}

// NewBookingRepository wires a booking repository to the shared handle.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, event_type_id, user_id, booker_name, booker_email, booker_phone,
	start_time, end_time, timezone, location_kind, location_value,
	guest_emails, notes, status, created_at, updated_at
`

// CreateConfirmed re-runs the buffered overlap check against the user's
// confirmed bookings and inserts the new booking inside one transaction.
// The check and the insert execute on the same serialized connection, so
// two racing submissions cannot both pass; the loser gets ErrConflict.
func (r *BookingRepository) CreateConfirmed(ctx context.Context, booking persistence.Booking, buffer time.Duration) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE user_id = ? AND status = ? AND start_time < ? AND end_time > ?
		`,
			booking.UserID,
			persistence.StatusConfirmed,
			formatTime(booking.End.Add(buffer)),
			formatTime(booking.Start.Add(-buffer)),
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check booking conflicts: %w", err)
		}
		if count > 0 {
			return persistence.ErrConflict
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			booking.ID,
			booking.EventTypeID,
			booking.UserID,
			booking.BookerName,
			booking.BookerEmail,
			booking.BookerPhone,
			formatTime(booking.Start),
			formatTime(booking.End),
			booking.Timezone,
			booking.LocationKind,
			booking.LocationValue,
			strings.Join(booking.GuestEmails, ","),
			booking.Notes,
			persistence.StatusConfirmed,
			formatTime(booking.CreatedAt),
			formatTime(booking.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	query := `
		UPDATE bookings
		SET booker_name = ?, booker_email = ?, booker_phone = ?, start_time = ?, end_time = ?,
		    timezone = ?, location_kind = ?, location_value = ?, guest_emails = ?, notes = ?,
		    status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.sql.ExecContext(ctx, query,
		booking.BookerName,
		booking.BookerEmail,
		booking.BookerPhone,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Timezone,
		booking.LocationKind,
		booking.LocationValue,
		strings.Join(booking.GuestEmails, ","),
		booking.Notes,
		booking.Status,
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"
	return scanBooking(r.db.sql.QueryRowContext(ctx, query, id))
}

// ListBookings returns the user's bookings matching the filter, most recent
// start first.
func (r *BookingRepository) ListBookings(ctx context.Context, userID string, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AttendeeName != "" {
		conditions = append(conditions, "booker_name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.AttendeeName+"%")
	}
	if filter.AttendeeEmail != "" {
		conditions = append(conditions, "booker_email = ? COLLATE NOCASE")
		args = append(args, filter.AttendeeEmail)
	}
	if filter.EventTypeID != "" {
		conditions = append(conditions, "event_type_id = ?")
		args = append(args, filter.EventTypeID)
	}
	if filter.From != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.To))
	}
	if filter.BookingID != "" {
		conditions = append(conditions, "id = ?")
		args = append(args, filter.BookingID)
	}

	query := "SELECT " + bookingColumns + " FROM bookings WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY start_time DESC, id ASC"
	return r.queryBookings(ctx, query, args...)
}

func (r *BookingRepository) ListConfirmedStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]persistence.Booking, error) {
	query := "SELECT " + bookingColumns + ` FROM bookings
		WHERE user_id = ? AND status = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC, id ASC`
	return r.queryBookings(ctx, query, userID, persistence.StatusConfirmed, formatTime(from), formatTime(to))
}

func (r *BookingRepository) CountConfirmedOverlapping(ctx context.Context, q persistence.OverlapQuery) (int, error) {
	conditions := []string{"status = ?", "start_time < ?", "end_time > ?"}
	args := []any{
		persistence.StatusConfirmed,
		formatTime(q.End.Add(q.Buffer)),
		formatTime(q.Start.Add(-q.Buffer)),
	}
	if q.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.EventTypeID != "" {
		conditions = append(conditions, "event_type_id = ?")
		args = append(args, q.EventTypeID)
	}
	if q.ExcludeBookingID != "" {
		conditions = append(conditions, "id <> ?")
		args = append(args, q.ExcludeBookingID)
	}

	var count int
	query := "SELECT COUNT(*) FROM bookings WHERE " + strings.Join(conditions, " AND ")
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) CountConfirmedStartingBetween(ctx context.Context, eventTypeID string, from, to time.Time) (int, error) {
	var count int
	err := r.db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE event_type_id = ? AND status = ? AND start_time >= ? AND start_time < ?
	`, eventTypeID, persistence.StatusConfirmed, formatTime(from), formatTime(to)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings in range: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) CountUpcomingConfirmed(ctx context.Context, eventTypeID string, reference time.Time) (int, error) {
	var count int
	err := r.db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE event_type_id = ? AND status = ? AND start_time >= ?
	`, eventTypeID, persistence.StatusConfirmed, formatTime(reference)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count upcoming bookings: %w", err)
	}
	return count, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking              persistence.Booking
		startTime, endTime   string
		guestEmails          string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&booking.ID,
		&booking.EventTypeID,
		&booking.UserID,
		&booking.BookerName,
		&booking.BookerEmail,
		&booking.BookerPhone,
		&startTime,
		&endTime,
		&booking.Timezone,
		&booking.LocationKind,
		&booking.LocationValue,
		&guestEmails,
		&booking.Notes,
		&booking.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, fmt.Errorf("scan booking: %w", err)
	}

	if guestEmails != "" {
		booking.GuestEmails = strings.Split(guestEmails, ",")
	}
	if booking.Start, err = parseTime(startTime); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(endTime); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
