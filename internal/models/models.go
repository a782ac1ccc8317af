package models

import "strings"

// Requester identifies who is asking for a booking operation.
// It is either AuthenticatedUser or Guest.
type Requester interface {
	requester()
	// ContactEmail is the email matched against guest bookings.
	ContactEmail() string
}

// AuthenticatedUser is a logged-in account. Email is the account email and lets the
// user manage guest bookings made with the same address.
type AuthenticatedUser struct {
	UserID int64
	Email  string
}

func (AuthenticatedUser) requester() {}

func (u AuthenticatedUser) ContactEmail() string {
	return NormalizeEmail(u.Email)
}

// Guest is an anonymous booker identified by contact details.
type Guest struct {
	Name  string
	Email string
	Phone string
}

func (Guest) requester() {}

func (g Guest) ContactEmail() string {
	return NormalizeEmail(g.Email)
}

// Owns reports whether the requester may manage the booking.
func Owns(r Requester, b *Booking) bool {
	switch req := r.(type) {
	case AuthenticatedUser:
		if b.UserID != nil {
			return *b.UserID == req.UserID
		}
		email := req.ContactEmail()
		return email != "" && NormalizeEmail(b.CustomerEmail) == email
	case Guest:
		email := req.ContactEmail()
		return b.UserID == nil && email != "" && NormalizeEmail(b.CustomerEmail) == email
	default:
		return false
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
