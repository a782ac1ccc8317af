package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bookhive/internal/database"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "service.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createEvent(t *testing.T, db *database.DB, total, available int, price float64) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:          "Indie Fest",
		Genre:          "Music",
		Location:       "Pune",
		Venue:          "Open Grounds",
		EventDate:      time.Now().AddDate(0, 1, 0),
		EventTime:      "18:00",
		Price:          price,
		TotalSeats:     total,
		AvailableSeats: available,
	}
	require.NoError(t, db.CreateEvent(context.Background(), event))
	return event
}

func createUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "User " + username,
		Phone:        "9876543210",
		PasswordHash: "hash",
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func availableSeats(t *testing.T, db *database.DB, eventID int64) int {
	t.Helper()
	event, err := db.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return event.AvailableSeats
}

func asRequester(u *models.User) models.AuthenticatedUser {
	return models.AuthenticatedUser{UserID: u.ID, Email: u.Email}
}

type publishedEvent struct {
	Type    string
	Payload json.RawMessage
}

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (b *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{Type: eventType, Payload: data})
	return b.err
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error {
	return m.Called(ctx, taskType, bookingID, booking, status).Error(0)
}
