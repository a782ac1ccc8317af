package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookhive/internal/domain"
	"bookhive/internal/models"
)

const bookingColumns = `b.id, b.event_id, b.user_id, b.booking_reference, b.customer_name, b.customer_email,
        b.phone, b.seats_booked, b.total_price, b.booking_status, b.payment_status, b.notes,
        b.booking_date, b.updated_at`

const bookingDetailQuery = `SELECT ` + bookingColumns + `,
        COALESCE(e.title, ''), COALESCE(e.genre, ''), COALESCE(e.event_date, ''), COALESCE(e.event_time, ''),
        COALESCE(e.location, ''), COALESCE(e.venue, ''), COALESCE(e.price, 0),
        COALESCE(e.total_seats, 0), COALESCE(e.available_seats, 0),
        COALESCE(u.username, ''), COALESCE(u.full_name, '')
    FROM bookings b
    LEFT JOIN events e ON e.id = b.event_id
    LEFT JOIN users u ON u.id = b.user_id`

func scanBooking(row rowScanner, extra ...any) (*models.Booking, error) {
	var (
		b      models.Booking
		userID sql.NullInt64
	)
	dest := []any{
		&b.ID, &b.EventID, &userID, &b.BookingReference, &b.CustomerName, &b.CustomerEmail,
		&b.Phone, &b.SeatsBooked, &b.TotalPrice, &b.BookingStatus, &b.PaymentStatus, &b.Notes,
		&b.BookingDate, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.UserID = int64Ptr(userID)
	return &b, nil
}

func scanBookingDetail(row rowScanner) (*models.BookingDetail, error) {
	var (
		d         models.BookingDetail
		eventDate string
	)
	booking, err := scanBooking(row,
		&d.EventTitle, &d.EventGenre, &eventDate, &d.EventTime,
		&d.EventLocation, &d.EventVenue, &d.EventPrice,
		&d.TotalSeats, &d.AvailableSeats,
		&d.Username, &d.UserFullName,
	)
	if err != nil {
		return nil, err
	}
	d.Booking = *booking
	if eventDate != "" {
		if parsed, err := time.Parse(models.DateLayout, eventDate); err == nil {
			d.EventDate = parsed
		}
	}
	return &d, nil
}

func getBooking(ctx context.Context, q querier, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	booking, err := scanBooking(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func queryBookingDetails(ctx context.Context, q querier, query string, args ...any) ([]models.BookingDetail, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.BookingDetail{}
	for rows.Next() {
		detail, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *detail)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return getBooking(ctx, db, id)
}

func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.booking_reference = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", reference, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingDetail(ctx context.Context, id int64) (*models.BookingDetail, error) {
	detail, err := scanBookingDetail(db.QueryRowContext(ctx, bookingDetailQuery+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking detail: %w", err)
	}
	return detail, nil
}

// ListBookings returns every booking, newest first.
func (db *DB) ListBookings(ctx context.Context) ([]models.BookingDetail, error) {
	return queryBookingDetails(ctx, db, bookingDetailQuery+` ORDER BY b.booking_date DESC, b.id DESC`)
}

// ListBookingsForUser returns the user's bookings plus guest bookings made with their email.
func (db *DB) ListBookingsForUser(ctx context.Context, userID int64, email string) ([]models.BookingDetail, error) {
	query := bookingDetailQuery + `
        WHERE b.user_id = ? OR (b.user_id IS NULL AND ? <> '' AND lower(b.customer_email) = ?)
        ORDER BY b.booking_date DESC, b.id DESC`
	normalized := models.NormalizeEmail(email)
	return queryBookingDetails(ctx, db, query, userID, normalized, normalized)
}

func (db *DB) ListBookingsByEvent(ctx context.Context, eventID int64) ([]models.BookingDetail, error) {
	return queryBookingDetails(ctx, db, bookingDetailQuery+` WHERE b.event_id = ? ORDER BY b.id`, eventID)
}

// SumActiveSeatsByEvent totals seats of active bookings per event.
func (db *DB) SumActiveSeatsByEvent(ctx context.Context) (map[int64]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT event_id, SUM(seats_booked) FROM bookings
                                       WHERE booking_status = 'active' GROUP BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum seats by event: %w", err)
	}
	defer rows.Close()

	sums := make(map[int64]int)
	for rows.Next() {
		var (
			eventID int64
			seats   int
		)
		if err := rows.Scan(&eventID, &seats); err != nil {
			return nil, fmt.Errorf("failed to scan seat sum: %w", err)
		}
		sums[eventID] = seats
	}
	return sums, rows.Err()
}

// GetAdminStats totals active bookings overall and on events created by adminID.
func (db *DB) GetAdminStats(ctx context.Context, adminID int64) (*models.AdminStats, error) {
	var stats models.AdminStats
	err := db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(total_price), 0)
                                    FROM bookings WHERE booking_status = 'active'`,
	).Scan(&stats.TotalBookings, &stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking totals: %w", err)
	}

	err = db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(b.total_price), 0)
                                   FROM bookings b
                                   INNER JOIN events e ON b.event_id = e.id
                                   WHERE b.booking_status = 'active' AND e.created_by = ?`, adminID,
	).Scan(&stats.AdminBookings, &stats.AdminRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin booking totals: %w", err)
	}
	return &stats, nil
}
