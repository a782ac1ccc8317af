package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"bookhive/internal/domain"
	"bookhive/internal/events"
	"bookhive/internal/metrics"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
)

const (
	opCreate       = "create"
	opCancel       = "cancel"
	opAdminSet     = "admin_set_status"
	changedByOwner = "owner"
)

// CreateBookingRequest asks for seats on one event.
type CreateBookingRequest struct {
	EventID   int64
	Requester models.Requester
	Seats     int
	Notes     string
}

// BookingService runs the seat-moving booking transitions. Every transition on an
// event holds that event's lock and runs in one store transaction, so the seat
// counter and the ledger change together or not at all.
type BookingService struct {
	store        domain.BookingStore
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	locks        *keyedMutex
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewBookingService(store domain.BookingStore, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		store:        store,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		locks:        newKeyedMutex(),
		logger:       logger,
		now:          time.Now,
	}
}

// CreateBooking reserves seats and appends an active booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.BookingResult, error) {
	if err := validateRequester(req.Requester); err != nil {
		return nil, s.observe(opCreate, err)
	}

	unlock := s.locks.Lock(req.EventID)
	defer unlock()

	var (
		booking   models.Booking
		event     *models.Event
		available int
	)
	err := s.store.InTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		event, err = tx.GetEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if !event.IsActive() {
			return domain.ErrEventNotActive
		}
		if req.Seats < 1 || req.Seats > models.MaxSeatsPerBooking {
			return domain.ErrInvalidQuantity
		}

		existing, err := tx.SumActiveSeats(ctx, req.EventID, req.Requester)
		if err != nil {
			return err
		}
		if existing+req.Seats > models.MaxSeatsPerRequester {
			return &domain.CapExceededError{
				Existing:  existing,
				Remaining: models.MaxSeatsPerRequester - existing,
			}
		}

		available, err = tx.ReserveSeats(ctx, req.EventID, req.Seats, true)
		if err != nil {
			return err
		}

		booking = models.Booking{
			EventID:       req.EventID,
			SeatsBooked:   req.Seats,
			TotalPrice:    totalPrice(req.Seats, event.Price),
			BookingStatus: models.BookingStatusActive,
			PaymentStatus: models.DefaultPaymentStatus,
			Notes:         strings.TrimSpace(req.Notes),
			BookingDate:   s.now(),
		}
		if err := fillCustomer(ctx, tx, req.Requester, &booking); err != nil {
			return err
		}
		return tx.AppendBooking(ctx, &booking)
	})
	if err != nil {
		s.logFailure(err, opCreate, req.EventID, 0)
		return nil, s.observe(opCreate, err)
	}

	s.observe(opCreate, nil)
	metrics.AddSeatsReserved(booking.SeatsBooked)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("event_id", booking.EventID).
		Str("reference", booking.BookingReference).
		Int("seats", booking.SeatsBooked).
		Int("available_seats", available).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, event.Title, "", available, changedByOwner)
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return bookingResult(booking, event.Title, available), nil
}

// CancelBooking cancels the requester's own booking and returns its seats.
// A booking the requester does not own is reported as domain.ErrUnauthorized.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, requester models.Requester) (*models.BookingResult, error) {
	if requester == nil {
		return nil, s.observe(opCancel, domain.ErrUnauthorized)
	}

	current, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, s.observe(opCancel, err)
	}

	unlock := s.locks.Lock(current.EventID)
	defer unlock()

	var (
		booking   *models.Booking
		title     string
		available int
	)
	err = s.store.InTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if !models.Owns(requester, booking) {
			return domain.ErrUnauthorized
		}
		if !booking.IsActive() {
			return domain.ErrAlreadyCancelled
		}

		if err := tx.SetBookingStatus(ctx, bookingID, models.BookingStatusCancelled, nil); err != nil {
			return err
		}
		available, err = tx.ReleaseSeats(ctx, booking.EventID, booking.SeatsBooked)
		if err != nil {
			return err
		}

		event, err := tx.GetEvent(ctx, booking.EventID)
		if err != nil {
			return err
		}
		title = event.Title
		return nil
	})
	if err != nil {
		s.logFailure(err, opCancel, current.EventID, bookingID)
		return nil, s.observe(opCancel, err)
	}

	booking.BookingStatus = models.BookingStatusCancelled
	booking.UpdatedAt = s.now()

	s.observe(opCancel, nil)
	metrics.AddSeatsReleased(booking.SeatsBooked)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("event_id", booking.EventID).
		Str("reference", booking.BookingReference).
		Int("available_seats", available).
		Msg("booking cancelled")

	s.publishEvent(events.EventBookingCancelled, *booking, title, models.BookingStatusActive, available, changedByOwner)
	s.enqueueSync(ctx, *booking, models.SyncTaskUpdateStatus)

	return bookingResult(*booking, title, available), nil
}

// AdminSetBookingStatus moves a booking between active and cancelled without an
// ownership check. Restoring re-checks seat capacity only; the original price stays.
// Setting the current status is a successful no-op unless a payment status is given.
func (s *BookingService) AdminSetBookingStatus(ctx context.Context, bookingID int64, status string, paymentStatus *string, adminName string) (*models.BookingResult, error) {
	if status != models.BookingStatusActive && status != models.BookingStatusCancelled {
		return nil, s.observe(opAdminSet, domain.ErrInvalidStatus)
	}

	current, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, s.observe(opAdminSet, err)
	}

	unlock := s.locks.Lock(current.EventID)
	defer unlock()

	var (
		booking   *models.Booking
		previous  string
		title     string
		available int
		changed   bool
	)
	err = s.store.InTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		previous = booking.BookingStatus

		switch {
		case previous == status:
			if paymentStatus != nil {
				if err := tx.SetBookingStatus(ctx, bookingID, status, paymentStatus); err != nil {
					return err
				}
				changed = true
			}
		case status == models.BookingStatusCancelled:
			if err := tx.SetBookingStatus(ctx, bookingID, status, paymentStatus); err != nil {
				return err
			}
			if _, err := tx.ReleaseSeats(ctx, booking.EventID, booking.SeatsBooked); err != nil {
				return err
			}
			changed = true
		default:
			if _, err := tx.ReserveSeats(ctx, booking.EventID, booking.SeatsBooked, false); err != nil {
				return err
			}
			if err := tx.SetBookingStatus(ctx, bookingID, status, paymentStatus); err != nil {
				return err
			}
			changed = true
		}

		event, err := tx.GetEvent(ctx, booking.EventID)
		if err != nil {
			return err
		}
		title = event.Title
		available = event.AvailableSeats
		return nil
	})
	if err != nil {
		s.logFailure(err, opAdminSet, current.EventID, bookingID)
		return nil, s.observe(opAdminSet, err)
	}
	s.observe(opAdminSet, nil)

	if !changed {
		return bookingResult(*booking, title, available), nil
	}

	booking.BookingStatus = status
	if paymentStatus != nil {
		booking.PaymentStatus = *paymentStatus
	}
	booking.UpdatedAt = s.now()

	switch {
	case previous == models.BookingStatusActive && status == models.BookingStatusCancelled:
		metrics.AddSeatsReleased(booking.SeatsBooked)
	case previous == models.BookingStatusCancelled && status == models.BookingStatusActive:
		metrics.AddSeatsReserved(booking.SeatsBooked)
	}
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("event_id", booking.EventID).
		Str("from", previous).
		Str("to", status).
		Str("admin", adminName).
		Int("available_seats", available).
		Msg("booking status set by admin")

	s.publishEvent(events.EventBookingStatusChanged, *booking, title, previous, available, adminName)
	s.enqueueSync(ctx, *booking, models.SyncTaskUpdateStatus)

	return bookingResult(*booking, title, available), nil
}

// LockEvent enters the critical section that booking transitions on eventID use.
func (s *BookingService) LockEvent(eventID int64) func() {
	return s.locks.Lock(eventID)
}

// GetBookingDetail returns a booking joined with its event and user.
func (s *BookingService) GetBookingDetail(ctx context.Context, id int64) (*models.BookingDetail, error) {
	return s.store.GetBookingDetail(ctx, id)
}

// ListAll returns every booking, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]models.BookingDetail, error) {
	return s.store.ListBookings(ctx)
}

// ListForRequester returns the bookings a user may manage: their own and guest
// bookings made with their email.
func (s *BookingService) ListForRequester(ctx context.Context, user models.AuthenticatedUser) ([]models.BookingDetail, error) {
	return s.store.ListBookingsForUser(ctx, user.UserID, user.ContactEmail())
}

// AdminStats returns dashboard totals for the admin.
func (s *BookingService) AdminStats(ctx context.Context, adminID int64) (*models.AdminStats, error) {
	return s.store.GetAdminStats(ctx, adminID)
}

func validateRequester(r models.Requester) error {
	switch req := r.(type) {
	case models.AuthenticatedUser:
		if req.UserID <= 0 {
			return domain.ErrUnauthorized
		}
		return nil
	case models.Guest:
		var fields []string
		if strings.TrimSpace(req.Name) == "" {
			fields = append(fields, "name is required")
		}
		if !strings.Contains(req.Email, "@") {
			fields = append(fields, "a valid email is required")
		}
		if strings.TrimSpace(req.Phone) == "" {
			fields = append(fields, "phone is required")
		}
		if len(fields) > 0 {
			return &domain.ValidationError{Fields: fields}
		}
		return nil
	default:
		return domain.ErrUnauthorized
	}
}

func fillCustomer(ctx context.Context, tx domain.LedgerTx, r models.Requester, booking *models.Booking) error {
	switch req := r.(type) {
	case models.AuthenticatedUser:
		user, err := tx.GetUserByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		id := user.ID
		booking.UserID = &id
		booking.CustomerName = user.FullName
		booking.CustomerEmail = user.Email
		booking.Phone = user.Phone
	case models.Guest:
		booking.CustomerName = strings.TrimSpace(req.Name)
		booking.CustomerEmail = strings.TrimSpace(req.Email)
		booking.Phone = strings.TrimSpace(req.Phone)
	}
	return nil
}

// totalPrice is fixed at booking time and rounded to cents.
func totalPrice(seats int, price float64) float64 {
	return math.Round(float64(seats)*price*100) / 100
}

func bookingResult(b models.Booking, title string, available int) *models.BookingResult {
	return &models.BookingResult{
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		EventID:          b.EventID,
		EventTitle:       title,
		SeatsBooked:      b.SeatsBooked,
		TotalPrice:       b.TotalPrice,
		BookingStatus:    b.BookingStatus,
		PaymentStatus:    b.PaymentStatus,
		AvailableSeats:   available,
	}
}

// observe counts the operation and hands err back.
func (s *BookingService) observe(op string, err error) error {
	metrics.ObserveBooking(op, outcome(err))
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEventNotActive):
		return "not_active"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInsufficientSeats):
		return "insufficient_seats"
	case errors.Is(err, domain.ErrPerUserCapExceeded):
		return "cap_exceeded"
	case errors.Is(err, domain.ErrAlreadyCancelled), errors.Is(err, domain.ErrAlreadyInState):
		return "already_in_state"
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrDataIntegrity):
		return "integrity_fault"
	default:
		return "error"
	}
}

func (s *BookingService) logFailure(err error, op string, eventID, bookingID int64) {
	if errors.Is(err, domain.ErrDataIntegrity) {
		metrics.IncIntegrityFault()
		s.logger.Error().Err(err).
			Str("alert", "data_integrity").
			Str("operation", op).
			Int64("event_id", eventID).
			Int64("booking_id", bookingID).
			Msg("seat ledger invariant violated")
		return
	}
	if outcome(err) == "error" {
		s.logger.Error().Err(err).
			Str("operation", op).
			Int64("event_id", eventID).
			Int64("booking_id", bookingID).
			Msg("booking operation failed")
		return
	}
	s.logger.Debug().Err(err).
		Str("operation", op).
		Int64("event_id", eventID).
		Int64("booking_id", bookingID).
		Msg("booking operation rejected")
}

func (s *BookingService) publishEvent(eventType string, booking models.Booking, title, previous string, available int, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		EventID:          booking.EventID,
		EventTitle:       title,
		UserID:           booking.UserID,
		CustomerName:     booking.CustomerName,
		CustomerEmail:    booking.CustomerEmail,
		SeatsBooked:      booking.SeatsBooked,
		TotalPrice:       booking.TotalPrice,
		Status:           booking.BookingStatus,
		PreviousStatus:   previous,
		PaymentStatus:    booking.PaymentStatus,
		AvailableSeats:   available,
		ChangedBy:        changedBy,
		OccurredAt:       s.now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == models.SyncTaskUpdateStatus {
		status = booking.BookingStatus
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, &booking, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
