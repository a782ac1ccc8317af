package domain

import (
	"context"
	"time"

	"bookhive/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// LedgerTx is the store as seen from inside one atomic unit of work.
// Nothing written through it is visible to others until the unit commits.
type LedgerTx interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	// ReserveSeats decrements available seats and returns the new count.
	ReserveSeats(ctx context.Context, eventID int64, count int, requireActive bool) (int, error)
	// ReleaseSeats increments available seats and returns the new count.
	ReleaseSeats(ctx context.Context, eventID int64, count int) (int, error)
	SumActiveSeats(ctx context.Context, eventID int64, requester models.Requester) (int, error)
	AppendBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	SetBookingStatus(ctx context.Context, id int64, status string, paymentStatus *string) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type BookingStore interface {
	InTx(ctx context.Context, fn func(tx LedgerTx) error) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingDetail(ctx context.Context, id int64) (*models.BookingDetail, error)
	ListBookings(ctx context.Context) ([]models.BookingDetail, error)
	ListBookingsForUser(ctx context.Context, userID int64, email string) ([]models.BookingDetail, error)
	GetAdminStats(ctx context.Context, adminID int64) (*models.AdminStats, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	SetEventStatus(ctx context.Context, id int64, status string) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListUpcomingEvents(ctx context.Context, from time.Time) ([]models.Event, error)
	ListEventsByCreator(ctx context.Context, creatorID int64) ([]models.Event, error)
	CountActiveEventsByGenre(ctx context.Context) (map[string]int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string, exceptUserID int64) (bool, error)
	UpdateUserProfile(ctx context.Context, id int64, fullName, phone, email string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	RecordLogin(ctx context.Context, record *models.LoginRecord) error
	ListLoginHistory(ctx context.Context, userID int64, limit int) ([]models.LoginRecord, error)
	GetUserStatistics(ctx context.Context, userID int64, today time.Time) (*models.UserStatistics, error)
	ListRecentBookings(ctx context.Context, userID int64, limit int) ([]models.BookingDetail, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpsertReview(ctx context.Context, review *models.Review) error
	ListReviews(ctx context.Context, userID int64, limit int) ([]models.Review, error)
}

// AnalyticsSource yields the snapshots that reports are folded from.
type AnalyticsSource interface {
	ListBookings(ctx context.Context) ([]models.BookingDetail, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// SessionStore keeps short-lived auth state: revoked tokens and attempt counters.
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
