package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitrina/internal/database"
	"vitrina/internal/domain"
	"vitrina/internal/events"
	"vitrina/internal/metrics"
	"vitrina/internal/models"

	"github.com/rs/zerolog"
)

// BookingService реализует журнал бронирований и расчёт доступности слотов.
// Доступность всегда считается от журнала, никакого кеша.
type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	syncWorker     domain.SyncWorker
	maxBookingDays int
	now            func() time.Time
	logger         *zerolog.Logger
}

// CreateBookingRequest carries the customer-supplied booking fields.
type CreateBookingRequest struct {
	StoreID   string
	Date      time.Time
	Slot      string
	PartySize int64
	Notes     string
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, maxBookingDays int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		syncWorker:     syncWorker,
		maxBookingDays: maxBookingDays,
		now:            time.Now,
		logger:         logger,
	}
}

// GetAvailableSlots derives per-slot remaining capacity from the store's
// template and the live booking load for the given date.
func (s *BookingService) GetAvailableSlots(ctx context.Context, storeID string, date time.Time) ([]models.SlotAvailability, error) {
	// Горизонт брони ограничивает только запись: витрину можно смотреть
	// на любую будущую дату.
	if s.isPastDate(date) {
		return nil, database.ErrPastDate
	}

	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(store.SlotTemplate) == 0 {
		return []models.SlotAvailability{}, nil
	}

	load, err := s.repo.GetSlotLoad(ctx, storeID, date)
	if err != nil {
		return nil, err
	}

	slots := make([]models.SlotAvailability, 0, len(store.SlotTemplate))
	for _, slot := range store.SortedSlots() {
		remaining := store.SlotCapacity - load[slot]
		if remaining <= 0 {
			continue
		}
		slots = append(slots, models.SlotAvailability{
			Slot:      slot,
			Capacity:  store.SlotCapacity,
			Remaining: remaining,
		})
	}
	return slots, nil
}

func (s *BookingService) CreateBooking(ctx context.Context, customerID string, req CreateBookingRequest) (*models.Booking, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id is required", database.ErrValidation)
	}
	if req.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", database.ErrValidation)
	}
	if err := s.checkDate(req.Date); err != nil {
		return nil, err
	}

	store, err := s.repo.GetStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if !store.HasSlot(req.Slot) {
		return nil, fmt.Errorf("%w: slot %q is not offered by the store", database.ErrValidation, req.Slot)
	}

	booking := &models.Booking{
		StoreID:    store.ID,
		CustomerID: customerID,
		Date:       req.Date,
		Slot:       req.Slot,
		PartySize:  req.PartySize,
		Notes:      strings.TrimSpace(req.Notes),
		Status:     models.StatusPending,
	}

	// Проверка вместимости и вставка идут в одной транзакции.
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotFull) {
			metrics.IncSlotFull()
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.publishBookingEvent(events.EventBookingCreated, booking, customerID)
	s.enqueueSync(ctx, booking, "")

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("store_id", booking.StoreID).
		Str("slot", booking.Slot).
		Int64("party_size", booking.PartySize).
		Msg("booking created")
	return booking, nil
}

// Transition moves a booking to the requested status if the state machine
// and the actor's permissions allow it. The version guard rejects stale
// writers with ErrConcurrentModification.
func (s *BookingService) Transition(ctx context.Context, bookingID, actorID, target string) (*models.Booking, error) {
	if !models.ValidStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", database.ErrInvalidTransition, target)
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, booking.Status, target)
	}

	store, err := s.repo.GetStore(ctx, booking.StoreID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTransition(booking, store, actorID, target); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, target); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(target)
	switch target {
	case models.StatusConfirmed:
		s.publishBookingEvent(events.EventBookingConfirmed, updated, actorID)
	case models.StatusCancelled:
		s.publishBookingEvent(events.EventBookingCancelled, updated, actorID)
	}
	s.enqueueSync(ctx, updated, target)

	s.logger.Info().
		Str("booking_id", updated.ID).
		Str("status", updated.Status).
		Str("actor_id", actorID).
		Msg("booking transitioned")
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// Подтверждает только владелец магазина. Отменить может владелец либо
// сам клиент, чья это бронь.
func (s *BookingService) authorizeTransition(booking *models.Booking, store *models.Store, actorID, target string) error {
	switch target {
	case models.StatusConfirmed:
		if actorID != store.OwnerID {
			return database.ErrPermissionDenied
		}
	case models.StatusCancelled:
		if actorID != store.OwnerID && actorID != booking.CustomerID {
			return database.ErrPermissionDenied
		}
	}
	return nil
}

func (s *BookingService) isPastDate(date time.Time) bool {
	return date.Format(models.DateLayout) < s.now().Format(models.DateLayout)
}

func (s *BookingService) checkDate(date time.Time) error {
	if s.isPastDate(date) {
		return database.ErrPastDate
	}
	horizon := s.now().AddDate(0, 0, s.maxBookingDays).Format(models.DateLayout)
	if date.Format(models.DateLayout) > horizon {
		return database.ErrDateTooFar
	}
	return nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, actorID string) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		StoreID:    booking.StoreID,
		CustomerID: booking.CustomerID,
		Date:       booking.Date.Format(models.DateLayout),
		Slot:       booking.Slot,
		PartySize:  booking.PartySize,
		Status:     booking.Status,
		ActorID:    actorID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, status string) {
	if s.syncWorker == nil {
		return
	}
	var err error
	if status == "" {
		err = s.syncWorker.EnqueueUpsert(ctx, booking)
	} else {
		err = s.syncWorker.EnqueueStatus(ctx, booking.ID, status)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("enqueue sync task error")
	}
}
