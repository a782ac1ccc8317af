package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "bookhive.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestEvent(t *testing.T, db *DB, seats int, price float64) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:          "Jazz Night",
		Genre:          "Music",
		Location:       "Bengaluru",
		Venue:          "Blue Room",
		EventDate:      time.Now().AddDate(0, 0, 7),
		EventTime:      "19:00",
		Price:          price,
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	require.NoError(t, db.CreateEvent(context.Background(), event))
	return event
}

func createTestUser(t *testing.T, db *DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		Phone:        "9876543210",
		PasswordHash: "hash",
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func testDay() time.Time {
	return time.Date(2030, 3, 14, 0, 0, 0, 0, time.UTC)
}
