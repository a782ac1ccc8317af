package models

import "time"

// Booking is a claim on seats of one event by a registered user or a guest.
// SeatsBooked, TotalPrice, BookingReference and BookingDate never change after creation.
type Booking struct {
	ID               int64     `json:"id"`
	EventID          int64     `json:"event_id"`
	UserID           *int64    `json:"user_id"`
	BookingReference string    `json:"booking_reference"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	Phone            string    `json:"phone"`
	SeatsBooked      int       `json:"seats_booked"`
	TotalPrice       float64   `json:"total_price"`
	BookingStatus    string    `json:"booking_status"`
	PaymentStatus    string    `json:"payment_status"`
	Notes            string    `json:"notes"`
	BookingDate      time.Time `json:"booking_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsActive reports whether the booking holds seats.
func (b *Booking) IsActive() bool {
	return b.BookingStatus == BookingStatusActive
}

// IsGuest reports whether the booking was made without an account.
func (b *Booking) IsGuest() bool {
	return b.UserID == nil
}

// BookingDetail is a booking joined with its event and, when present, its user.
type BookingDetail struct {
	Booking
	EventTitle     string    `json:"event_title"`
	EventGenre     string    `json:"event_genre"`
	EventDate      time.Time `json:"event_date"`
	EventTime      string    `json:"event_time"`
	EventLocation  string    `json:"event_location"`
	EventVenue     string    `json:"event_venue"`
	EventPrice     float64   `json:"event_price"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	Username       string    `json:"username,omitempty"`
	UserFullName   string    `json:"user_full_name,omitempty"`
}

// BookingResult is what a successful booking transition reports back to callers.
type BookingResult struct {
	BookingID        int64   `json:"booking_id"`
	BookingReference string  `json:"booking_reference"`
	EventID          int64   `json:"event_id"`
	EventTitle       string  `json:"event_title"`
	SeatsBooked      int     `json:"seats_booked"`
	TotalPrice       float64 `json:"total_price"`
	BookingStatus    string  `json:"booking_status"`
	PaymentStatus    string  `json:"payment_status"`
	AvailableSeats   int     `json:"available_seats"`
}

// AdminStats are the dashboard totals over active bookings.
type AdminStats struct {
	TotalBookings int     `json:"total_bookings"`
	TotalRevenue  float64 `json:"total_revenue"`
	AdminBookings int     `json:"admin_bookings"`
	AdminRevenue  float64 `json:"admin_revenue"`
}
