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

const eventColumns = `id, title, genre, location, venue, description, image_url, event_date,
        event_time, event_end_time, price, total_seats, available_seats, featured, status,
        created_by, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e         models.Event
		eventDate string
		createdBy sql.NullInt64
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Genre, &e.Location, &e.Venue, &e.Description, &e.ImageURL, &eventDate,
		&e.EventTime, &e.EventEndTime, &e.Price, &e.TotalSeats, &e.AvailableSeats, &e.Featured, &e.Status,
		&createdBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventDate != "" {
		parsed, err := time.Parse(models.DateLayout, eventDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event date %q: %w", eventDate, err)
		}
		e.EventDate = parsed
	}
	e.CreatedBy = int64Ptr(createdBy)
	return &e, nil
}

func getEvent(ctx context.Context, q querier, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	event, err := scanEvent(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func queryEvents(ctx context.Context, q querier, query string, args ...any) ([]models.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (db *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return getEvent(ctx, db, id)
}

func (db *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO events (title, genre, location, venue, description, image_url, event_date,
                event_time, event_end_time, price, total_seats, available_seats, featured, status,
                created_by, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := db.now()
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}
	result, err := db.ExecContext(ctx, query,
		event.Title,
		event.Genre,
		event.Location,
		event.Venue,
		event.Description,
		event.ImageURL,
		event.EventDate.Format(models.DateLayout),
		event.EventTime,
		event.EventEndTime,
		event.Price,
		event.TotalSeats,
		event.AvailableSeats,
		event.Featured,
		event.Status,
		nullableInt64(event.CreatedBy),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

// UpdateEvent overwrites the editable fields, seat counts included.
func (db *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	query := `UPDATE events SET title = ?, genre = ?, location = ?, venue = ?, description = ?,
                image_url = ?, event_date = ?, event_time = ?, event_end_time = ?, price = ?,
                total_seats = ?, available_seats = ?, featured = ?, updated_at = ?
              WHERE id = ?`
	now := db.now()
	result, err := db.ExecContext(ctx, query,
		event.Title,
		event.Genre,
		event.Location,
		event.Venue,
		event.Description,
		event.ImageURL,
		event.EventDate.Format(models.DateLayout),
		event.EventTime,
		event.EventEndTime,
		event.Price,
		event.TotalSeats,
		event.AvailableSeats,
		event.Featured,
		now,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %d: %w", event.ID, domain.ErrNotFound)
	}
	event.UpdatedAt = now
	return nil
}

func (db *DB) SetEventStatus(ctx context.Context, id int64, status string) error {
	result, err := db.ExecContext(ctx, `UPDATE events SET status = ?, updated_at = ? WHERE id = ?`, status, db.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("event %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	return queryEvents(ctx, db, `SELECT `+eventColumns+` FROM events ORDER BY event_date, event_time, id`)
}

// ListUpcomingEvents returns active events dated on or after from.
func (db *DB) ListUpcomingEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
              WHERE status = 'active' AND event_date >= ?
              ORDER BY event_date, event_time, id`
	return queryEvents(ctx, db, query, from.Format(models.DateLayout))
}

func (db *DB) ListEventsByCreator(ctx context.Context, creatorID int64) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
              WHERE created_by = ? AND status = 'active'
              ORDER BY event_date, event_time, id`
	return queryEvents(ctx, db, query, creatorID)
}

func (db *DB) CountActiveEventsByGenre(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT genre, COUNT(*) FROM events WHERE status = 'active' GROUP BY genre`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events by genre: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			genre string
			count int
		)
		if err := rows.Scan(&genre, &count); err != nil {
			return nil, fmt.Errorf("failed to scan genre count: %w", err)
		}
		counts[genre] = count
	}
	return counts, rows.Err()
}

// EnsureEvents inserts seed events that are not stored yet, matching on title and date.
func (db *DB) EnsureEvents(ctx context.Context, events []models.Event) (int, error) {
	inserted := 0
	for i := range events {
		event := events[i]
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM events WHERE title = ? AND event_date = ?)`,
			event.Title, event.EventDate.Format(models.DateLayout),
		).Scan(&exists)
		if err != nil {
			return inserted, fmt.Errorf("failed to check seed event: %w", err)
		}
		if exists {
			continue
		}
		if event.AvailableSeats == 0 {
			event.AvailableSeats = event.TotalSeats
		}
		if err := db.CreateEvent(ctx, &event); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
