package models

import "time"

// Event is a bookable occurrence with a finite seat inventory.
type Event struct {
	ID             int64     `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Genre          string    `json:"genre" yaml:"genre"`
	Location       string    `json:"location" yaml:"location"`
	Venue          string    `json:"venue" yaml:"venue"`
	Description    string    `json:"description" yaml:"description"`
	ImageURL       string    `json:"image_url" yaml:"image_url"`
	EventDate      time.Time `json:"event_date" yaml:"-"`
	EventTime      string    `json:"event_time" yaml:"event_time"`
	EventEndTime   string    `json:"event_end_time,omitempty" yaml:"event_end_time"`
	Price          float64   `json:"price" yaml:"price"`
	TotalSeats     int       `json:"total_seats" yaml:"total_seats"`
	AvailableSeats int       `json:"available_seats" yaml:"available_seats"`
	Featured       bool      `json:"featured" yaml:"featured"`
	Status         string    `json:"status" yaml:"status"`
	CreatedBy      *int64    `json:"created_by,omitempty" yaml:"-"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}

// IsActive reports whether the event accepts bookings.
func (e *Event) IsActive() bool {
	return e.Status == EventStatusActive
}

// OccupiedSeats is the number of seats held by active bookings.
func (e *Event) OccupiedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// IsUpcoming reports whether the event takes place today or later.
func (e *Event) IsUpcoming(now time.Time) bool {
	if e.EventDate.IsZero() {
		return false
	}
	return !e.EventDate.Before(truncateDay(now))
}

// DaysUntil returns the number of days until the event, or -1 for past events.
func (e *Event) DaysUntil(now time.Time) int {
	if !e.IsUpcoming(now) {
		return -1
	}
	return int(truncateDay(e.EventDate).Sub(truncateDay(now)).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Category describes presentation metadata of an event genre.
type Category struct {
	Genre       string `json:"genre"`
	Count       int    `json:"count"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	DisplayName string `json:"display_name"`
	Slug        string `json:"slug"`
}

var EventCategories = map[string]struct {
	Icon  string
	Color string
}{
	"Music":        {Icon: "fa-music", Color: "#ff5e1a"},
	"Sports":       {Icon: "fa-futbol", Color: "#ef4444"},
	"Food & Drink": {Icon: "fa-utensils", Color: "#10b981"},
	"Art":          {Icon: "fa-palette", Color: "#a855f7"},
	"Festivals":    {Icon: "fa-calendar-star", Color: "#f59e0b"},
	"Comedy":       {Icon: "fa-laugh", Color: "#f59e0b"},
	"Business":     {Icon: "fa-briefcase", Color: "#6366f1"},
}
