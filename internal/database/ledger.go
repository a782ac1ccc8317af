package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookhive/internal/domain"
	"bookhive/internal/models"
)

// ledgerTx implements domain.LedgerTx on top of one sqlite transaction.
type ledgerTx struct {
	tx *sql.Tx
	db *DB
}

func (t *ledgerTx) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return getEvent(ctx, t.tx, id)
}

func (t *ledgerTx) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return getBooking(ctx, t.tx, id)
}

func (t *ledgerTx) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getUserByID(ctx, t.tx, id)
}

// ReserveSeats takes count seats with a conditional decrement; the row is only touched
// when enough seats remain, so the counter can never go negative.
func (t *ledgerTx) ReserveSeats(ctx context.Context, eventID int64, count int, requireActive bool) (int, error) {
	if count <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	query := `UPDATE events SET available_seats = available_seats - ?, updated_at = ?
              WHERE id = ? AND available_seats >= ?`
	if requireActive {
		query += ` AND status = 'active'`
	}
	result, err := t.tx.ExecContext(ctx, query, count, t.db.now(), eventID, count)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve seats: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		event, err := getEvent(ctx, t.tx, eventID)
		if err != nil {
			return 0, err
		}
		if requireActive && !event.IsActive() {
			return 0, domain.ErrEventNotActive
		}
		return 0, &domain.InsufficientSeatsError{Requested: count, Available: event.AvailableSeats}
	}

	return availableSeats(ctx, t.tx, eventID)
}

// ReleaseSeats returns count seats. Raising available seats above the total means
// seats were released that were never reserved, which is reported as an integrity fault.
func (t *ledgerTx) ReleaseSeats(ctx context.Context, eventID int64, count int) (int, error) {
	if count <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	query := `UPDATE events SET available_seats = available_seats + ?, updated_at = ?
              WHERE id = ? AND available_seats + ? <= total_seats`
	result, err := t.tx.ExecContext(ctx, query, count, t.db.now(), eventID, count)
	if err != nil {
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		event, err := getEvent(ctx, t.tx, eventID)
		if err != nil {
			return 0, err
		}
		return 0, &domain.IntegrityError{
			EventID: eventID,
			Detail: fmt.Sprintf("releasing %d seats would raise available seats from %d above total %d",
				count, event.AvailableSeats, event.TotalSeats),
		}
	}

	return availableSeats(ctx, t.tx, eventID)
}

func availableSeats(ctx context.Context, q querier, eventID int64) (int, error) {
	var available int
	err := q.QueryRowContext(ctx, `SELECT available_seats FROM events WHERE id = ?`, eventID).Scan(&available)
	if err != nil {
		return 0, fmt.Errorf("failed to read available seats: %w", err)
	}
	return available, nil
}

// SumActiveSeats adds up seats of active bookings the requester holds on the event.
// Users are matched by id, guests by contact email on bookings without a user.
func (t *ledgerTx) SumActiveSeats(ctx context.Context, eventID int64, requester models.Requester) (int, error) {
	var (
		query string
		args  []any
	)
	switch r := requester.(type) {
	case models.AuthenticatedUser:
		query = `SELECT COALESCE(SUM(seats_booked), 0) FROM bookings
                 WHERE event_id = ? AND user_id = ? AND booking_status = 'active'`
		args = []any{eventID, r.UserID}
	case models.Guest:
		query = `SELECT COALESCE(SUM(seats_booked), 0) FROM bookings
                 WHERE event_id = ? AND user_id IS NULL AND lower(customer_email) = ?
                 AND booking_status = 'active'`
		args = []any{eventID, r.ContactEmail()}
	default:
		return 0, fmt.Errorf("unsupported requester %T", requester)
	}

	var total int
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active seats: %w", err)
	}
	return total, nil
}

// AppendBooking stores a new booking under a fresh reference, regenerating the
// reference when it collides with an existing one.
func (t *ledgerTx) AppendBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (event_id, user_id, booking_reference, customer_name, customer_email,
                phone, seats_booked, total_price, booking_status, payment_status, notes, booking_date, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if booking.BookingDate.IsZero() {
		booking.BookingDate = t.db.now()
	}
	booking.UpdatedAt = booking.BookingDate

	for attempt := 1; attempt <= models.MaxReferenceAttempts; attempt++ {
		reference := t.db.refGen(booking.BookingDate)
		result, err := t.tx.ExecContext(ctx, query,
			booking.EventID,
			nullableInt64(booking.UserID),
			reference,
			booking.CustomerName,
			booking.CustomerEmail,
			booking.Phone,
			booking.SeatsBooked,
			booking.TotalPrice,
			booking.BookingStatus,
			booking.PaymentStatus,
			booking.Notes,
			booking.BookingDate,
			booking.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "bookings.booking_reference") {
				t.db.logger.Warn().Str("reference", reference).Int("attempt", attempt).Msg("booking reference collision, regenerating")
				continue
			}
			return fmt.Errorf("failed to append booking: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		booking.ID = id
		booking.BookingReference = reference
		return nil
	}

	return domain.ErrReferenceExhausted
}

// SetBookingStatus changes the status and, when given, the payment status.
// Asking for the current status without a payment change is ErrAlreadyInState.
func (t *ledgerTx) SetBookingStatus(ctx context.Context, id int64, status string, paymentStatus *string) error {
	var current string
	err := t.tx.QueryRowContext(ctx, `SELECT booking_status FROM bookings WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status: %w", err)
	}
	if current == status && paymentStatus == nil {
		return domain.ErrAlreadyInState
	}

	query := `UPDATE bookings SET booking_status = ?, updated_at = ?`
	args := []any{status, t.db.now()}
	if paymentStatus != nil {
		query += `, payment_status = ?`
		args = append(args, *paymentStatus)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}
