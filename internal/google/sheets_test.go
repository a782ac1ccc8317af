package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookhive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *SheetsService) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	s := newSheetsService(srv, "bookings_tid")
	s.now = func() time.Time { return time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC) }
	return mux, s
}

func testBooking(id int64) *models.Booking {
	userID := int64(7)
	at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID:               id,
		BookingReference: "BK20300101ABC123",
		EventID:          3,
		UserID:           &userID,
		CustomerName:     "Ada",
		CustomerEmail:    "ada@example.com",
		Phone:            "9876543210",
		SeatsBooked:      2,
		TotalPrice:       40,
		BookingStatus:    models.BookingStatusActive,
		PaymentStatus:    models.DefaultPaymentStatus,
		BookingDate:      at,
		UpdatedAt:        at,
	}
}

func TestSheetsService_TestConnection(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	assert.NoError(t, s.TestConnection(context.Background()))
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"123"}, {}, {456}},
		})
	})
	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow(123)
	assert.True(t, ok)
	assert.Equal(t, 2, row)
	row, ok = s.getCachedRow(456)
	assert.True(t, ok)
	assert.Equal(t, 4, row)
}

func TestSheetsService_UpsertBooking_Appends(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	var appended sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&appended)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A10:M10"},
		})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking(789)))

	row, ok := s.getCachedRow(789)
	assert.True(t, ok)
	assert.Equal(t, 10, row)
	require.Len(t, appended.Values, 1)
	assert.Equal(t, "BK20300101ABC123", appended.Values[0][1])
}

func TestSheetsService_UpsertBooking_Updates(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow(123, 2)
	called := false
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:M2", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking(123)))
	assert.True(t, called)
	assert.Error(t, s.UpsertBooking(context.Background(), nil))
}

func TestSheetsService_UpdateBookingStatus(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow(55, 4)

	var status, updatedAt sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!J4", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&status)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!M4", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&updatedAt)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.UpdateBookingStatus(context.Background(), 55, models.BookingStatusCancelled))
	assert.Equal(t, "cancelled", status.Values[0][0])
	assert.Equal(t, "2030-01-02 03:04:05", updatedAt.Values[0][0])
}

func TestSheetsService_FindBookingRow_NotFound(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"1"}}})
	})

	_, err := s.FindBookingRow(context.Background(), 2)
	assert.ErrorIs(t, err, ErrRowNotFound)

	_, err = s.FindBookingRow(context.Background(), 0)
	assert.Error(t, err)

	assert.Error(t, s.UpdateBookingStatus(context.Background(), 2, "cancelled"))
}

func TestSheetsService_ReplaceBookingsSheet(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:M:clear", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})
	var written sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&written)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	bookings := []models.Booking{*testBooking(10), *testBooking(11)}
	require.NoError(t, s.ReplaceBookingsSheet(context.Background(), bookings))

	assert.Len(t, written.Values, 3)
	row, ok := s.getCachedRow(11)
	assert.True(t, ok)
	assert.Equal(t, 3, row)

	s.ClearCache()
	_, ok = s.getCachedRow(11)
	assert.False(t, ok)
}

func TestBookingRowValues(t *testing.T) {
	values := bookingRowValues(testBooking(123))
	assert.Equal(t, []interface{}{
		int64(123),
		"BK20300101ABC123",
		int64(3),
		int64(7),
		"Ada",
		"ada@example.com",
		"9876543210",
		2,
		40.0,
		"active",
		"paid",
		"2030-01-01 10:00:00",
		"2030-01-01 10:00:00",
	}, values)

	guest := testBooking(1)
	guest.UserID = nil
	assert.Equal(t, "", bookingRowValues(guest)[3])
}

func TestRowFromRange(t *testing.T) {
	row, ok := rowFromRange("Bookings!A10:M10")
	assert.True(t, ok)
	assert.Equal(t, 10, row)

	row, ok = rowFromRange("B7")
	assert.True(t, ok)
	assert.Equal(t, 7, row)

	_, ok = rowFromRange("Bookings!A:A")
	assert.False(t, ok)
}
