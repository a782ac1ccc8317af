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

const userColumns = `id, username, email, full_name, phone, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getUserByID(ctx context.Context, q querier, id int64) (*models.User, error) {
	user, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, email, full_name, phone, password_hash, role, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := db.now()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	result, err := db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FullName,
		user.Phone,
		user.PasswordHash,
		user.Role,
		now,
		now,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.username"):
			return domain.ErrUsernameTaken
		case isUniqueViolation(err, "users.email"):
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getUserByID(ctx, db, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// EmailExists checks for the email on any account other than exceptUserID.
func (db *DB) EmailExists(ctx context.Context, email string, exceptUserID int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND id <> ?)`, email, exceptUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (db *DB) UpdateUserProfile(ctx context.Context, id int64, fullName, phone, email string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, phone = ?, email = ?, updated_at = ? WHERE id = ?`,
		fullName, phone, email, db.now(), id,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return expectAffected(result, "user", id)
}

func (db *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, db.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectAffected(result, "user", id)
}

// SetUserRole is used by seeding to promote accounts.
func (db *DB) SetUserRole(ctx context.Context, id int64, role string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, db.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return expectAffected(result, "user", id)
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (db *DB) RecordLogin(ctx context.Context, record *models.LoginRecord) error {
	if record.LoginTime.IsZero() {
		record.LoginTime = db.now()
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO user_login_history (user_id, login_status, ip_address, user_agent, login_time) VALUES (?, ?, ?, ?, ?)`,
		record.UserID, record.LoginStatus, record.IPAddress, record.UserAgent, record.LoginTime,
	)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id
	return nil
}

func (db *DB) ListLoginHistory(ctx context.Context, userID int64, limit int) ([]models.LoginRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, login_status, ip_address, user_agent, login_time
                                       FROM user_login_history WHERE user_id = ?
                                       ORDER BY login_time DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list login history: %w", err)
	}
	defer rows.Close()

	records := []models.LoginRecord{}
	for rows.Next() {
		var r models.LoginRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.LoginStatus, &r.IPAddress, &r.UserAgent, &r.LoginTime); err != nil {
			return nil, fmt.Errorf("failed to scan login record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetUserStatistics summarises the user's bookings; events dated before today are past.
func (db *DB) GetUserStatistics(ctx context.Context, userID int64, today time.Time) (*models.UserStatistics, error) {
	var stats models.UserStatistics
	day := today.Format(models.DateLayout)
	err := db.QueryRowContext(ctx, `SELECT
                COUNT(*),
                COALESCE(SUM(b.total_price), 0),
                COUNT(CASE WHEN e.event_date >= ? THEN 1 END),
                COUNT(CASE WHEN e.event_date < ? THEN 1 END),
                COUNT(CASE WHEN b.booking_status = 'cancelled' THEN 1 END),
                COALESCE(AVG(b.total_price), 0),
                COALESCE(MAX(b.total_price), 0)
            FROM bookings b
            LEFT JOIN events e ON b.event_id = e.id
            WHERE b.user_id = ?`, day, day, userID,
	).Scan(
		&stats.TotalBookings,
		&stats.TotalSpent,
		&stats.UpcomingBookings,
		&stats.PastBookings,
		&stats.CancelledBookings,
		&stats.AverageBookingValue,
		&stats.MostExpensiveBooking,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}

	var last time.Time
	err = db.QueryRowContext(ctx, `SELECT booking_date FROM bookings WHERE user_id = ?
                                   ORDER BY booking_date DESC LIMIT 1`, userID).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get last booking date: %w", err)
	default:
		stats.LastBookingDate = &last
	}

	err = db.QueryRowContext(ctx, `SELECT e.genre FROM bookings b
                                   JOIN events e ON b.event_id = e.id
                                   WHERE b.user_id = ? AND b.booking_status != 'cancelled'
                                   GROUP BY e.genre ORDER BY COUNT(*) DESC, e.genre LIMIT 1`, userID,
	).Scan(&stats.FavoriteCategory)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get favorite category: %w", err)
	}

	return &stats, nil
}

func (db *DB) ListRecentBookings(ctx context.Context, userID int64, limit int) ([]models.BookingDetail, error) {
	query := bookingDetailQuery + ` WHERE b.user_id = ? ORDER BY b.booking_date DESC, b.id DESC LIMIT ?`
	return queryBookingDetails(ctx, db, query, userID, limit)
}

func expectAffected(result sql.Result, entity string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
