package database

import (
	"context"
	"fmt"

	"bookhive/internal/models"
)

// UpsertReview keeps one review per user and event; a second review replaces the first.
func (db *DB) UpsertReview(ctx context.Context, review *models.Review) error {
	query := `INSERT INTO user_reviews (user_id, event_id, booking_id, rating, review_title, review_text,
                would_recommend, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(user_id, event_id) DO UPDATE SET
                booking_id = excluded.booking_id,
                rating = excluded.rating,
                review_title = excluded.review_title,
                review_text = excluded.review_text,
                would_recommend = excluded.would_recommend,
                updated_at = excluded.updated_at`
	now := db.now()
	_, err := db.ExecContext(ctx, query,
		review.UserID,
		review.EventID,
		review.BookingID,
		review.Rating,
		review.Title,
		review.Text,
		review.WouldRecommend,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}

	err = db.QueryRowContext(ctx, `SELECT id, created_at FROM user_reviews WHERE user_id = ? AND event_id = ?`,
		review.UserID, review.EventID).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read review: %w", err)
	}
	review.UpdatedAt = now
	return nil
}

func (db *DB) ListReviews(ctx context.Context, userID int64, limit int) ([]models.Review, error) {
	rows, err := db.QueryContext(ctx, `SELECT r.id, r.user_id, r.event_id, r.booking_id, r.rating, r.review_title,
                r.review_text, r.would_recommend, COALESCE(e.title, ''), r.created_at, r.updated_at
            FROM user_reviews r
            LEFT JOIN events e ON r.event_id = e.id
            WHERE r.user_id = ?
            ORDER BY r.created_at DESC, r.id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.BookingID, &r.Rating, &r.Title,
			&r.Text, &r.WouldRecommend, &r.EventTitle, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
