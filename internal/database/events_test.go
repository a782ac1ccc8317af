package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "admin_one")

	event := &models.Event{
		Title:          "Food Fest",
		Genre:          "Food & Drink",
		EventDate:      time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		Price:          12.5,
		TotalSeats:     50,
		AvailableSeats: 50,
		CreatedBy:      &admin.ID,
	}
	require.NoError(t, db.CreateEvent(ctx, event))
	assert.NotZero(t, event.ID)
	assert.Equal(t, models.EventStatusActive, event.Status)

	got, err := db.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food Fest", got.Title)
	assert.Equal(t, "2030-05-01", got.EventDate.Format(models.DateLayout))
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, admin.ID, *got.CreatedBy)

	got.Price = 15
	got.TotalSeats = 60
	got.AvailableSeats = 55
	require.NoError(t, db.UpdateEvent(ctx, got))

	updated, err := db.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Price)
	assert.Equal(t, 55, updated.AvailableSeats)

	mine, err := db.ListEventsByCreator(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, db.SetEventStatus(ctx, event.ID, models.EventStatusCancelled))
	mine, err = db.ListEventsByCreator(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = db.GetEvent(ctx, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.ErrorIs(t, db.SetEventStatus(ctx, 9999, models.EventStatusCancelled), domain.ErrNotFound)
}

func TestEvents_SeatBoundsEnforcedBySchema(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 10, 5)

	event.AvailableSeats = 11
	assert.Error(t, db.UpdateEvent(context.Background(), event))
}

func TestEvents_UpcomingAndGenres(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	today := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)

	for _, e := range []models.Event{
		{Title: "Past", Genre: "Music", EventDate: today.AddDate(0, 0, -1), TotalSeats: 1, AvailableSeats: 1},
		{Title: "Today", Genre: "Music", EventDate: today, TotalSeats: 1, AvailableSeats: 1},
		{Title: "Later", Genre: "Art", EventDate: today.AddDate(0, 1, 0), TotalSeats: 1, AvailableSeats: 1},
	} {
		event := e
		require.NoError(t, db.CreateEvent(ctx, &event))
	}

	upcoming, err := db.ListUpcomingEvents(ctx, today)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Today", upcoming[0].Title)
	assert.Equal(t, "Later", upcoming[1].Title)

	counts, err := db.CountActiveEventsByGenre(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Music": 2, "Art": 1}, counts)
}

func TestEnsureEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	seed := []models.Event{
		{Title: "Comedy Hour", Genre: "Comedy", EventDate: time.Date(2030, 2, 2, 0, 0, 0, 0, time.UTC), Price: 10, TotalSeats: 40},
	}

	inserted, err := db.EnsureEvents(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	inserted, err = db.EnsureEvents(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	events, err := db.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 40, events[0].AvailableSeats)
}
