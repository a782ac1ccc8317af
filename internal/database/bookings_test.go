package database

import (
	"context"
	"testing"

	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookings_Views(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "admin_views")
	user := createTestUser(t, db, "viewer")

	own := &models.Event{Title: "Own", Genre: "Business", EventDate: testDay(), Price: 30, TotalSeats: 10, AvailableSeats: 10, CreatedBy: &admin.ID}
	other := createTestEvent(t, db, 10, 10)
	require.NoError(t, db.CreateEvent(ctx, own))

	userBooking := newBooking(own, &user.ID, user.Email, 2)
	guestBooking := newBooking(other, nil, "VIEWER@example.com", 1)
	strangerBooking := newBooking(other, nil, "stranger@example.com", 3)
	cancelled := newBooking(own, nil, "x@example.com", 1)
	cancelled.BookingStatus = models.BookingStatusCancelled
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		for _, b := range []*models.Booking{userBooking, guestBooking, strangerBooking, cancelled} {
			if err := tx.AppendBooking(ctx, b); err != nil {
				return err
			}
		}
		return nil
	}))

	all, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := db.ListBookingsForUser(ctx, user.ID, user.Email)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	detail, err := db.GetBookingDetail(ctx, userBooking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Own", detail.EventTitle)
	assert.Equal(t, "Business", detail.EventGenre)
	assert.Equal(t, "viewer", detail.Username)
	assert.Equal(t, testDay().Format(models.DateLayout), detail.EventDate.Format(models.DateLayout))

	_, err = db.GetBookingDetail(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byEvent, err := db.ListBookingsByEvent(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)

	stats, err := db.GetAdminStats(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBookings)
	assert.InDelta(t, 60+10+30, stats.TotalRevenue, 0.001)
	assert.Equal(t, 1, stats.AdminBookings)
	assert.InDelta(t, 60, stats.AdminRevenue, 0.001)
}
