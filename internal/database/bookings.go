package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartturf/internal/models"
)

// Slot times are persisted as RFC3339 UTC strings so that lexicographic
// comparison matches chronological order and the unique index key is stable.
func slotKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ReserveSlot creates a confirmed booking for one hourly slot. Price lookups
// and the insert run in a single transaction; the partial unique index on
// (turf_id, start_time) is the conflict arbiter, so two concurrent attempts
// for the same slot cannot both commit.
func (db *DB) ReserveSlot(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var turfPrice float64
	err = tx.QueryRowContext(ctx, `SELECT price_per_hour FROM turfs WHERE id = ?`, booking.TurfID).Scan(&turfPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTurfNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up turf price: %w", err)
	}

	total := turfPrice
	if booking.KitID != nil {
		var kitPrice float64
		var available bool
		err = tx.QueryRowContext(ctx, `SELECT price_per_hour, available FROM kits WHERE id = ?`, *booking.KitID).
			Scan(&kitPrice, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrKitNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up kit: %w", err)
		}
		if !available {
			return ErrKitUnavailable
		}
		total += kitPrice
	}

	start := booking.StartTime.UTC()
	end := start.Add(time.Hour)
	now := time.Now().UTC()

	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
				user_id, turf_id, kit_id, start_time, end_time,
				total_price, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.UserID,
		booking.TurfID,
		booking.KitID,
		slotKey(start),
		slotKey(end),
		total,
		models.StatusConfirmed,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.StartTime = start
	booking.EndTime = end
	booking.TotalPrice = total
	booking.Status = models.StatusConfirmed
	booking.CreatedAt = now
	return nil
}

// GetBookedHours returns the set of occupied whole hours (UTC) for a turf
// between dayStart inclusive and dayEnd exclusive. Only confirmed bookings
// count; cancelled rows free their slot.
func (db *DB) GetBookedHours(ctx context.Context, turfID int64, dayStart, dayEnd time.Time) (map[int]bool, error) {
	query := `SELECT start_time FROM bookings
              WHERE turf_id = ? AND status = ? AND start_time >= ? AND start_time < ?`
	rows, err := db.QueryContext(ctx, query, turfID, models.StatusConfirmed, slotKey(dayStart), slotKey(dayEnd))
	if err != nil {
		return nil, fmt.Errorf("failed to get booked hours: %w", err)
	}
	defer rows.Close()

	booked := make(map[int]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan booking time: %w", err)
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse booking time %s: %w", raw, err)
		}
		booked[t.UTC().Hour()] = true
	}
	return booked, rows.Err()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	var startStr, endStr string
	query := `SELECT id, user_id, turf_id, kit_id, start_time, end_time,
	                 total_price, status, created_at
              FROM bookings WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.TurfID, &b.KitID, &startStr, &endStr,
		&b.TotalPrice, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if b.StartTime, err = time.Parse(time.RFC3339, startStr); err != nil {
		return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
	}
	if b.EndTime, err = time.Parse(time.RFC3339, endStr); err != nil {
		return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
	}
	return &b, nil
}

// GetUserBookings returns the user's booking history joined with turf and
// kit display fields, newest first.
func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.BookingView, error) {
	query := `SELECT b.id, b.start_time, b.end_time, b.total_price, b.status,
	                 t.id, t.name, t.location, COALESCE(k.name, ''), b.created_at
              FROM bookings b
              JOIN turfs t ON b.turf_id = t.id
              LEFT JOIN kits k ON b.kit_id = k.id
              WHERE b.user_id = ?
              ORDER BY b.start_time DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.BookingView
	for rows.Next() {
		v := &models.BookingView{}
		var startStr, endStr string
		err := rows.Scan(
			&v.ID, &startStr, &endStr, &v.TotalPrice, &v.Status,
			&v.TurfID, &v.TurfName, &v.Location, &v.KitName, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if v.StartTime, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
		}
		if v.EndTime, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
		}
		bookings = append(bookings, v)
	}
	return bookings, rows.Err()
}

// GetBookingsByDateRange returns booking views with start times inside
// [start, end), used by the export worker.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.BookingView, error) {
	query := `SELECT b.id, b.start_time, b.end_time, b.total_price, b.status,
	                 t.id, t.name, t.location, COALESCE(k.name, ''), b.created_at
              FROM bookings b
              JOIN turfs t ON b.turf_id = t.id
              LEFT JOIN kits k ON b.kit_id = k.id
              WHERE b.start_time >= ? AND b.start_time < ?
              ORDER BY b.start_time ASC`
	rows, err := db.QueryContext(ctx, query, slotKey(start), slotKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.BookingView
	for rows.Next() {
		v := &models.BookingView{}
		var startStr, endStr string
		err := rows.Scan(
			&v.ID, &startStr, &endStr, &v.TotalPrice, &v.Status,
			&v.TurfID, &v.TurfName, &v.Location, &v.KitName, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if v.StartTime, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking start %s: %w", startStr, err)
		}
		if v.EndTime, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("failed to parse booking end %s: %w", endStr, err)
		}
		bookings = append(bookings, v)
	}
	return bookings, rows.Err()
}
