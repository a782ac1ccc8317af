package database

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(event *models.Event, userID *int64, email string, seats int) *models.Booking {
	return &models.Booking{
		EventID:       event.ID,
		UserID:        userID,
		CustomerName:  "Ada",
		CustomerEmail: email,
		SeatsBooked:   seats,
		TotalPrice:    float64(seats) * event.Price,
		BookingStatus: models.BookingStatusActive,
		PaymentStatus: models.DefaultPaymentStatus,
	}
}

func TestLedger_ReserveAndRelease(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)

	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		available, err := tx.ReserveSeats(ctx, event.ID, 3, true)
		require.NoError(t, err)
		assert.Equal(t, 2, available)

		_, err = tx.ReserveSeats(ctx, event.ID, 3, true)
		var insufficient *domain.InsufficientSeatsError
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, 2, insufficient.Available)
		assert.ErrorIs(t, err, domain.ErrInsufficientSeats)

		available, err = tx.ReleaseSeats(ctx, event.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, available)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_ReleaseAboveTotalIsIntegrityFault(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)

	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		_, err := tx.ReleaseSeats(ctx, event.ID, 1)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	got, err := db.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableSeats)
}

func TestLedger_ReserveRespectsEventStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)
	require.NoError(t, db.SetEventStatus(ctx, event.ID, models.EventStatusPostponed))

	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		_, err := tx.ReserveSeats(ctx, event.ID, 1, true)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrEventNotActive)

	err = db.InTx(ctx, func(tx domain.LedgerTx) error {
		available, err := tx.ReserveSeats(ctx, event.ID, 1, false)
		assert.Equal(t, 4, available)
		return err
	})
	assert.NoError(t, err)

	err = db.InTx(ctx, func(tx domain.LedgerTx) error {
		_, err := tx.ReserveSeats(ctx, 424242, 1, true)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)
	boom := errors.New("boom")

	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		if _, err := tx.ReserveSeats(ctx, event.ID, 2, true); err != nil {
			return err
		}
		if err := tx.AppendBooking(ctx, newBooking(event, nil, "guest@example.com", 2)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := db.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.AvailableSeats)

	bookings, err := db.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestLedger_AppendAssignsReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)
	booking := newBooking(event, nil, "guest@example.com", 1)

	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.AppendBooking(ctx, booking)
	}))

	assert.NotZero(t, booking.ID)
	assert.True(t, strings.HasPrefix(booking.BookingReference, "BK"+booking.BookingDate.Format("20060102")))
	assert.Len(t, booking.BookingReference, 2+8+6)

	stored, err := db.GetBookingByReference(ctx, booking.BookingReference)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
	assert.Nil(t, stored.UserID)
}

func TestLedger_ReferenceCollisionRegenerates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)

	refs := []string{"BK20300101AAAAAA", "BK20300101AAAAAA", "BK20300101BBBBBB"}
	var mu sync.Mutex
	db.SetReferenceGenerator(func(time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		ref := refs[0]
		if len(refs) > 1 {
			refs = refs[1:]
		}
		return ref
	})

	first := newBooking(event, nil, "a@example.com", 1)
	second := newBooking(event, nil, "b@example.com", 1)
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error { return tx.AppendBooking(ctx, first) }))
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error { return tx.AppendBooking(ctx, second) }))

	assert.Equal(t, "BK20300101AAAAAA", first.BookingReference)
	assert.Equal(t, "BK20300101BBBBBB", second.BookingReference)
}

func TestLedger_ReferenceExhausted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)
	db.SetReferenceGenerator(func(time.Time) string { return "BK20300101SAMESS" })

	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.AppendBooking(ctx, newBooking(event, nil, "a@example.com", 1))
	}))
	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.AppendBooking(ctx, newBooking(event, nil, "b@example.com", 1))
	})
	assert.ErrorIs(t, err, domain.ErrReferenceExhausted)
}

func TestLedger_SumActiveSeats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 50, 10)
	user := createTestUser(t, db, "sum_user")

	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		for _, b := range []*models.Booking{
			newBooking(event, &user.ID, user.Email, 3),
			newBooking(event, &user.ID, user.Email, 2),
			newBooking(event, nil, "Guest@Example.com", 4),
			newBooking(event, nil, "other@example.com", 1),
		} {
			if err := tx.AppendBooking(ctx, b); err != nil {
				return err
			}
		}
		return nil
	}))

	cancelled := newBooking(event, &user.ID, user.Email, 5)
	cancelled.BookingStatus = models.BookingStatusCancelled
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error { return tx.AppendBooking(ctx, cancelled) }))

	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		sum, err := tx.SumActiveSeats(ctx, event.ID, models.AuthenticatedUser{UserID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, 5, sum)

		sum, err = tx.SumActiveSeats(ctx, event.ID, models.Guest{Email: " guest@example.COM "})
		require.NoError(t, err)
		assert.Equal(t, 4, sum)

		sum, err = tx.SumActiveSeats(ctx, event.ID, models.Guest{Email: "nobody@example.com"})
		require.NoError(t, err)
		assert.Zero(t, sum)
		return nil
	}))
}

func TestLedger_SetBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 5, 10)
	booking := newBooking(event, nil, "a@example.com", 1)
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error { return tx.AppendBooking(ctx, booking) }))

	err := db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.SetBookingStatus(ctx, booking.ID, models.BookingStatusActive, nil)
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyInState)

	refunded := "refunded"
	require.NoError(t, db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.SetBookingStatus(ctx, booking.ID, models.BookingStatusCancelled, &refunded)
	}))

	stored, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.BookingStatus)
	assert.Equal(t, "refunded", stored.PaymentStatus)

	err = db.InTx(ctx, func(tx domain.LedgerTx) error {
		return tx.SetBookingStatus(ctx, 777, models.BookingStatusCancelled, nil)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	event := createTestEvent(t, db, 7, 10)

	const workers = 20
	var (
		wg      sync.WaitGroup
		results = make(chan error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- db.InTx(ctx, func(tx domain.LedgerTx) error {
				if _, err := tx.ReserveSeats(ctx, event.ID, 1, true); err != nil {
					return err
				}
				return tx.AppendBooking(ctx, newBooking(event, nil, "c@example.com", 1))
			})
		}()
	}
	wg.Wait()
	close(results)

	succeeded, insufficient := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientSeats):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 7, succeeded)
	assert.Equal(t, workers-7, insufficient)

	got, err := db.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSeats)

	sums, err := db.SumActiveSeatsByEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, got.TotalSeats-got.AvailableSeats, sums[event.ID])
}
