package models

const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusPostponed = "postponed"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
)

const (
	// MaxSeatsPerBooking caps a single booking request.
	MaxSeatsPerBooking = 10

	// MaxSeatsPerRequester caps active seats held by one requester on one event.
	MaxSeatsPerRequester = 10

	// DefaultPaymentStatus is stored on every new booking; there is no payment gateway.
	DefaultPaymentStatus = "paid"

	// BookingReferencePrefix starts every booking reference.
	BookingReferencePrefix = "BK"

	// BookingReferenceRandomLength is the number of random [A-Z0-9] characters.
	BookingReferenceRandomLength = 6

	// MaxReferenceAttempts bounds regeneration after a reference collision.
	MaxReferenceAttempts = 5

	// DefaultTopEvents is the size of the top events list.
	DefaultTopEvents = 10

	// DefaultLoginHistorySize is how many login records a profile shows.
	DefaultLoginHistorySize = 10

	// RecentBookingsSize is how many bookings a profile shows.
	RecentBookingsSize = 10

	// WorkerQueueSize is the buffer of in-process worker queues.
	WorkerQueueSize = 1000
)

// DateLayout is the storage and wire layout of calendar dates.
const DateLayout = "2006-01-02"
