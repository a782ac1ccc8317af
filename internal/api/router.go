package api

import (
	"net/http"
	"time"

	"bookhive/internal/config"
	"bookhive/internal/domain"
	"bookhive/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	guestBookingAttempts = 5
	guestBookingWindow   = 10 * time.Minute
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	bookings  *service.BookingService
	events    *service.EventService
	users     *service.UserService
	analytics *service.AnalyticsService
	sessions  domain.SessionStore
	tokens    *TokenManager
	apiKeys   *apiKeyAuth
	limiter   *rateLimiter
	log       *zerolog.Logger
}

func newHandler(cfg *config.APIConfig, svc Services, log *zerolog.Logger) *Handler {
	return &Handler{
		bookings:  svc.Bookings,
		events:    svc.Events,
		users:     svc.Users,
		analytics: svc.Analytics,
		sessions:  svc.Sessions,
		tokens:    svc.Tokens,
		apiKeys:   newAPIKeyAuth(cfg),
		limiter:   newRateLimiter(cfg.RateLimit),
		log:       log,
	}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(h.limiter))

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Get("/events/categories", h.Categories)
		r.Get("/events/{eventID}", h.GetEvent)

		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/password-strength", h.PasswordStrength)

		r.Post("/guest/bookings", h.CreateGuestBooking)
		r.Post("/guest/bookings/{bookingID}/cancel", h.CancelGuestBooking)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/auth/logout", h.Logout)

			r.Get("/me", h.Profile)
			r.Put("/me", h.UpdateProfile)
			r.Post("/me/password", h.ChangePassword)
			r.Get("/me/logins", h.LoginHistory)
			r.Get("/me/bookings", h.MyBookings)
			r.Post("/me/reviews", h.AddReview)

			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings/{bookingID}", h.GetBooking)
			r.Post("/bookings/{bookingID}/cancel", h.CancelBooking)

			r.Route("/admin", func(r chi.Router) {
				r.Use(h.RequireAdmin)

				r.Get("/dashboard", h.AdminDashboard)
				r.Get("/users", h.AdminUsers)

				r.Get("/bookings", h.AdminBookings)
				r.Get("/bookings/{bookingID}", h.AdminBooking)
				r.Put("/bookings/{bookingID}/status", h.AdminSetBookingStatus)

				r.Get("/events", h.AdminEvents)
				r.Post("/events", h.AdminCreateEvent)
				r.Put("/events/{eventID}", h.AdminUpdateEvent)
				r.Delete("/events/{eventID}", h.AdminCancelEvent)

				r.Get("/analytics/sales", h.SalesReport)
				r.Get("/analytics/trend", h.SalesTrend)
				r.Get("/analytics/summary", h.AnalyticsSummary)
				r.Get("/analytics/dashboard", h.AnalyticsDashboard)
				r.Get("/analytics/report", h.TextReport)
				r.Get("/analytics/export", h.ExportWorkbook)
			})
		})

		r.Route("/internal", func(r chi.Router) {
			r.With(h.RequireAPIKey(permReadAvailability)).Get("/events/{eventID}/availability", h.InternalAvailability)
			r.With(h.RequireAPIKey(permReadStatistics)).Get("/statistics", h.InternalStatistics)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
