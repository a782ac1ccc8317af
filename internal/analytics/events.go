package analytics

import (
	"sort"
	"strings"
	"time"

	"bookhive/internal/models"
)

// EventFilter narrows an event list. Zero values do not filter.
type EventFilter struct {
	Genre        string
	MinPrice     *float64
	MaxPrice     *float64
	DateFrom     *time.Time
	DateTo       *time.Time
	MinAvailable int
}

func FilterEvents(events []models.Event, f EventFilter) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if f.Genre != "" && e.Genre != f.Genre {
			continue
		}
		if f.MinPrice != nil && e.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && e.Price > *f.MaxPrice {
			continue
		}
		if f.DateFrom != nil && e.EventDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && e.EventDate.After(*f.DateTo) {
			continue
		}
		if e.AvailableSeats < f.MinAvailable {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortEvents orders a copy of events. Title sorts ascending ignoring case and
// available_seats sorts descending regardless of reverse; unknown keys keep the order.
func SortEvents(events []models.Event, sortBy string, reverse bool) []models.Event {
	out := append([]models.Event(nil), events...)

	var less func(a, b models.Event) bool
	switch sortBy {
	case "date":
		less = func(a, b models.Event) bool { return a.EventDate.Before(b.EventDate) }
	case "price":
		less = func(a, b models.Event) bool { return a.Price < b.Price }
	case "title":
		less = func(a, b models.Event) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
		reverse = false
	case "available_seats":
		less = func(a, b models.Event) bool { return a.AvailableSeats > b.AvailableSeats }
		reverse = false
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

type PriceAnalysis struct {
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Minimum float64 `json:"minimum"`
	Total   float64 `json:"total"`
}

// EventTrends describes the event catalogue. Genre revenue is the sum of listed prices.
type EventTrends struct {
	TotalEvents          int                `json:"total_events"`
	CategoryDistribution map[string]int     `json:"category_distribution"`
	RevenueByGenre       map[string]float64 `json:"revenue_by_genre"`
	UpcomingEvents       int                `json:"upcoming_events"`
	PastEvents           int                `json:"past_events"`
	Prices               PriceAnalysis      `json:"price_analysis"`
	MostPopularGenre     string             `json:"most_popular_genre,omitempty"`
	HighestRevenueGenre  string             `json:"highest_revenue_genre,omitempty"`
}

func AnalyzeEvents(events []models.Event, now time.Time) EventTrends {
	trends := EventTrends{
		TotalEvents:          len(events),
		CategoryDistribution: make(map[string]int),
		RevenueByGenre:       make(map[string]float64),
	}
	if len(events) == 0 {
		return trends
	}

	var genres []string
	trends.Prices.Minimum = events[0].Price
	for _, e := range events {
		genre := e.Genre
		if genre == "" {
			genre = "Unknown"
		}
		if _, seen := trends.CategoryDistribution[genre]; !seen {
			genres = append(genres, genre)
		}
		trends.CategoryDistribution[genre]++
		trends.RevenueByGenre[genre] += e.Price

		if e.IsUpcoming(now) {
			trends.UpcomingEvents++
		} else {
			trends.PastEvents++
		}

		trends.Prices.Total += e.Price
		if e.Price > trends.Prices.Maximum {
			trends.Prices.Maximum = e.Price
		}
		if e.Price < trends.Prices.Minimum {
			trends.Prices.Minimum = e.Price
		}
	}
	trends.Prices.Average = trends.Prices.Total / float64(len(events))

	// first genre wins ties
	for _, g := range genres {
		if trends.MostPopularGenre == "" || trends.CategoryDistribution[g] > trends.CategoryDistribution[trends.MostPopularGenre] {
			trends.MostPopularGenre = g
		}
		if trends.HighestRevenueGenre == "" || trends.RevenueByGenre[g] > trends.RevenueByGenre[trends.HighestRevenueGenre] {
			trends.HighestRevenueGenre = g
		}
	}
	return trends
}
