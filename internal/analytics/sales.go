// Package analytics folds booking, event and user snapshots into reports.
// Every function here is pure: the same snapshot always yields the same report.
package analytics

import (
	"sort"

	"bookhive/internal/models"
)

const OtherGenre = "Other"

// Period buckets a sales trend.
type Period string

const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
)

func (p Period) layout() string {
	if p == Monthly {
		return "2006-01"
	}
	return models.DateLayout
}

// ParsePeriod maps a query value to a Period, defaulting to Daily.
func ParsePeriod(s string) Period {
	if Period(s) == Monthly {
		return Monthly
	}
	return Daily
}

// Sales is a ticket and revenue tally.
type Sales struct {
	Tickets int     `json:"tickets"`
	Revenue float64 `json:"revenue"`
}

type GenreSales struct {
	Genre string `json:"genre"`
	Sales
}

type TrendPoint struct {
	Period string `json:"period"`
	Sales
}

type EventSales struct {
	EventID int64  `json:"event_id"`
	Title   string `json:"title"`
	Sales
}

// BookingStats summarises bookings of every status.
type BookingStats struct {
	TotalBookings       int            `json:"total_bookings"`
	StatusBreakdown     map[string]int `json:"status_breakdown"`
	TotalRevenue        float64        `json:"total_revenue"`
	AverageBookingValue float64        `json:"average_booking_value"`
	BookingRate         float64        `json:"booking_rate"`
}

func activeOnly(bookings []models.BookingDetail) []models.BookingDetail {
	out := make([]models.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			out = append(out, b)
		}
	}
	return out
}

// SalesByGenre totals active bookings per event genre in order of first appearance.
// Bookings of events without a genre count as Other.
func SalesByGenre(bookings []models.BookingDetail) []GenreSales {
	index := make(map[string]int)
	var out []GenreSales
	for _, b := range activeOnly(bookings) {
		genre := b.EventGenre
		if genre == "" {
			genre = OtherGenre
		}
		i, ok := index[genre]
		if !ok {
			i = len(out)
			index[genre] = i
			out = append(out, GenreSales{Genre: genre})
		}
		out[i].Tickets += b.SeatsBooked
		out[i].Revenue += b.TotalPrice
	}
	return out
}

// SalesTrend buckets active bookings by booking date, sorted by period key.
func SalesTrend(bookings []models.BookingDetail, period Period) []TrendPoint {
	buckets := make(map[string]*TrendPoint)
	for _, b := range activeOnly(bookings) {
		key := b.BookingDate.Format(period.layout())
		p, ok := buckets[key]
		if !ok {
			p = &TrendPoint{Period: key}
			buckets[key] = p
		}
		p.Tickets += b.SeatsBooked
		p.Revenue += b.TotalPrice
	}

	out := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// TopEvents ranks events by revenue of active bookings, highest first. Ties keep
// the order in which events were first encountered.
func TopEvents(bookings []models.BookingDetail, n int) []EventSales {
	if n <= 0 {
		n = models.DefaultTopEvents
	}

	index := make(map[int64]int)
	var out []EventSales
	for _, b := range activeOnly(bookings) {
		i, ok := index[b.EventID]
		if !ok {
			i = len(out)
			index[b.EventID] = i
			out = append(out, EventSales{EventID: b.EventID})
		}
		out[i].Title = b.EventTitle
		out[i].Tickets += b.SeatsBooked
		out[i].Revenue += b.TotalPrice
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Statistics counts bookings of every status. Revenue is summed over all counted bookings.
func Statistics(bookings []models.BookingDetail) BookingStats {
	stats := BookingStats{
		TotalBookings: len(bookings),
		StatusBreakdown: map[string]int{
			models.BookingStatusActive:    0,
			models.BookingStatusCancelled: 0,
		},
	}
	if len(bookings) == 0 {
		return stats
	}

	for _, b := range bookings {
		if _, ok := stats.StatusBreakdown[b.BookingStatus]; ok {
			stats.StatusBreakdown[b.BookingStatus]++
		}
		stats.TotalRevenue += b.TotalPrice
	}
	total := float64(len(bookings))
	stats.AverageBookingValue = stats.TotalRevenue / total
	stats.BookingRate = float64(stats.StatusBreakdown[models.BookingStatusActive]) / total * 100
	return stats
}
