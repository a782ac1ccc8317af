package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// LoginRecord is one entry of the login history.
type LoginRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	LoginStatus string    `json:"login_status"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
	LoginTime   time.Time `json:"login_time"`
}

// Review is a user's rating of an event they booked.
type Review struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	EventID        int64     `json:"event_id"`
	BookingID      int64     `json:"booking_id"`
	Rating         int       `json:"rating"`
	Title          string    `json:"review_title"`
	Text           string    `json:"review_text"`
	WouldRecommend bool      `json:"would_recommend"`
	EventTitle     string    `json:"event_title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserStatistics summarises a user's booking history.
type UserStatistics struct {
	TotalBookings        int        `json:"total_bookings"`
	TotalSpent           float64    `json:"total_spent"`
	UpcomingBookings     int        `json:"upcoming_bookings"`
	PastBookings         int        `json:"past_bookings"`
	CancelledBookings    int        `json:"cancelled_bookings"`
	AverageBookingValue  float64    `json:"average_booking_value"`
	MostExpensiveBooking float64    `json:"most_expensive_booking"`
	LastBookingDate      *time.Time `json:"last_booking_date"`
	FavoriteCategory     string     `json:"favorite_category,omitempty"`
}

// Profile is everything the profile page shows about a user.
type Profile struct {
	User           *User           `json:"user"`
	Statistics     UserStatistics  `json:"statistics"`
	RecentBookings []BookingDetail `json:"recent_bookings"`
	Reviews        []Review        `json:"reviews"`
}

// AuthToken is a signed access token handed out at login.
type AuthToken struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
