package api

import (
	"net/http"

	"bookhive/internal/domain"
	"bookhive/internal/models"
	"bookhive/internal/service"
)

type bookingRequest struct {
	EventID int64  `json:"event_id" validate:"required"`
	Seats   int    `json:"seats"`
	Notes   string `json:"notes" validate:"max=500"`
}

type guestBookingRequest struct {
	EventID int64  `json:"event_id" validate:"required"`
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,phone"`
	Seats   int    `json:"seats"`
	Notes   string `json:"notes" validate:"max=500"`
}

type guestCancelRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req bookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	result, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		EventID:   req.EventID,
		Requester: p.Requester(),
		Seats:     req.Seats,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GetBooking shows a booking to its owner or an admin. Anyone else gets 404.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	detail, err := h.bookings.GetBookingDetail(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if !p.IsAdmin() && !models.Owns(p.Requester(), &detail.Booking) {
		writeDomainError(w, h.log, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	result, err := h.bookings.CancelBooking(r.Context(), id, p.Requester())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	bookings, err := h.bookings.ListForRequester(r.Context(), p.Requester())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handler) CreateGuestBooking(w http.ResponseWriter, r *http.Request) {
	var req guestBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	if !h.allowGuestBooking(r) {
		writeDomainError(w, h.log, domain.ErrRateLimited)
		return
	}

	result, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		EventID:   req.EventID,
		Requester: models.Guest{Name: req.Name, Email: req.Email, Phone: req.Phone},
		Seats:     req.Seats,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// CancelGuestBooking cancels a guest booking when the email matches the one it was made with.
func (h *Handler) CancelGuestBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	var req guestCancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	result, err := h.bookings.CancelBooking(r.Context(), id, models.Guest{Email: req.Email})
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// allowGuestBooking limits anonymous bookings per client address. A failing
// store does not block bookings.
func (h *Handler) allowGuestBooking(r *http.Request) bool {
	allowed, err := h.sessions.CheckRateLimit(r.Context(), "guest_booking:"+clientIP(r), guestBookingAttempts, guestBookingWindow)
	if err != nil {
		h.log.Warn().Err(err).Msg("guest booking rate limit check failed")
		return true
	}
	return allowed
}
