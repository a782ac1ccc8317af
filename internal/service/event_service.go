package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bookhive/internal/analytics"
	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
)

// EventInput holds the admin-editable fields of an event.
type EventInput struct {
	Title          string
	Genre          string
	Location       string
	Venue          string
	Description    string
	ImageURL       string
	EventDate      time.Time
	EventTime      string
	EventEndTime   string
	Price          float64
	TotalSeats     int
	AvailableSeats *int
	Featured       bool
}

// eventLocker hands out the per-event critical section shared with booking transitions.
type eventLocker interface {
	LockEvent(eventID int64) func()
}

type EventService struct {
	repo   domain.EventRepository
	locks  eventLocker
	logger *zerolog.Logger
	now    func() time.Time
}

func NewEventService(repo domain.EventRepository, locks eventLocker, logger *zerolog.Logger) *EventService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventService{
		repo:   repo,
		locks:  locks,
		logger: logger,
		now:    time.Now,
	}
}

// Categories lists every known genre with its active event count, most populous first.
func (s *EventService) Categories(ctx context.Context) ([]models.Category, error) {
	counts, err := s.repo.CountActiveEventsByGenre(ctx)
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(models.EventCategories))
	for genre, meta := range models.EventCategories {
		categories = append(categories, models.Category{
			Genre:       genre,
			Count:       counts[genre],
			Icon:        meta.Icon,
			Color:       meta.Color,
			DisplayName: genre,
			Slug:        strings.ToLower(strings.ReplaceAll(genre, " & ", "-")),
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Genre < categories[j].Genre
	})
	return categories, nil
}

func (s *EventService) ListUpcoming(ctx context.Context) ([]models.Event, error) {
	return s.repo.ListUpcomingEvents(ctx, s.now())
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *EventService) ListByCreator(ctx context.Context, adminID int64) ([]models.Event, error) {
	return s.repo.ListEventsByCreator(ctx, adminID)
}

// Filter narrows upcoming events and orders them by sortBy.
func (s *EventService) Filter(ctx context.Context, filter analytics.EventFilter, sortBy string, reverse bool) ([]models.Event, error) {
	events, err := s.ListUpcoming(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SortEvents(analytics.FilterEvents(events, filter), sortBy, reverse), nil
}

// Create stores a new active event owned by adminID with every seat available.
func (s *EventService) Create(ctx context.Context, adminID int64, input EventInput) (*models.Event, error) {
	if err := validateEventInput(input, false); err != nil {
		return nil, err
	}

	creator := adminID
	event := &models.Event{
		CreatedBy: &creator,
		Status:    models.EventStatusActive,
	}
	applyEventInput(event, input)
	event.AvailableSeats = input.TotalSeats

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("event_id", event.ID).Int64("admin_id", adminID).Str("title", event.Title).Msg("event created")
	return event, nil
}

// Update overwrites an event created by adminID. Seat counts may be reset directly
// but must stay within 0 <= available <= total.
func (s *EventService) Update(ctx context.Context, adminID, id int64, input EventInput) (*models.Event, error) {
	if err := validateEventInput(input, true); err != nil {
		return nil, err
	}

	if s.locks != nil {
		unlock := s.locks.LockEvent(id)
		defer unlock()
	}

	event, err := s.ownedEvent(ctx, adminID, id)
	if err != nil {
		return nil, err
	}

	applyEventInput(event, input)
	if input.AvailableSeats != nil {
		event.AvailableSeats = *input.AvailableSeats
	}
	if event.AvailableSeats > event.TotalSeats {
		return nil, &domain.ValidationError{Fields: []string{"available seats cannot exceed total seats"}}
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("event_id", id).Int64("admin_id", adminID).Msg("event updated")
	return event, nil
}

// Cancel marks an event created by adminID as cancelled. Events are never removed.
func (s *EventService) Cancel(ctx context.Context, adminID, id int64) error {
	if _, err := s.ownedEvent(ctx, adminID, id); err != nil {
		return err
	}
	if err := s.repo.SetEventStatus(ctx, id, models.EventStatusCancelled); err != nil {
		return err
	}
	s.logger.Info().Int64("event_id", id).Int64("admin_id", adminID).Msg("event cancelled")
	return nil
}

func (s *EventService) ownedEvent(ctx context.Context, adminID, id int64) (*models.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy == nil || *event.CreatedBy != adminID {
		return nil, fmt.Errorf("event %d: %w", id, domain.ErrForbidden)
	}
	return event, nil
}

func validateEventInput(input EventInput, update bool) error {
	var fields []string
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, "title is required")
	}
	if strings.TrimSpace(input.Genre) == "" {
		fields = append(fields, "genre is required")
	}
	if input.EventDate.IsZero() {
		fields = append(fields, "event date is required")
	}
	if input.Price < 0 {
		fields = append(fields, "price cannot be negative")
	}
	if input.TotalSeats < 0 {
		fields = append(fields, "total seats cannot be negative")
	}
	if update && input.AvailableSeats != nil && *input.AvailableSeats < 0 {
		fields = append(fields, "available seats cannot be negative")
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func applyEventInput(event *models.Event, input EventInput) {
	event.Title = strings.TrimSpace(input.Title)
	event.Genre = strings.TrimSpace(input.Genre)
	event.Location = input.Location
	event.Venue = input.Venue
	event.Description = input.Description
	event.ImageURL = input.ImageURL
	event.EventDate = input.EventDate
	event.EventTime = input.EventTime
	event.EventEndTime = input.EventEndTime
	event.Price = input.Price
	event.TotalSeats = input.TotalSeats
	event.Featured = input.Featured
}
