package service

import (
	"context"
	"errors"

	"deskbook/internal/database"
	"deskbook/internal/domain"
	"deskbook/internal/events"
	"deskbook/internal/metrics"
	"deskbook/internal/models"

	"github.com/rs/zerolog"
)

// ReservationService orchestrates booking creation and cancellation against
// the store, mediated by the conflict engine.
type ReservationService struct {
	store    domain.Store
	engine   domain.ConflictChecker
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReservationService(store domain.Store, engine domain.ConflictChecker, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Book validates the slot, then checks availability and inserts the
// reservation inside a single transaction. Two near-simultaneous requests for
// the same slot cannot both succeed.
func (s *ReservationService) Book(ctx context.Context, slot models.Slot, user *models.User) (*models.Reservation, error) {
	if err := s.engine.ValidateSlot(slot); err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		Desk:       slot.Desk,
		Date:       slot.Date,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		ReservedBy: user.Name,
		StudentID:  user.StudentID,
	}

	if err := s.store.CreateReservationWithLock(ctx, reservation); err != nil {
		if errors.Is(err, database.ErrSlotUnavailable) {
			metrics.IncReservationConflict()
		}
		return nil, err
	}

	metrics.IncReservationCreated()
	s.publishEvent(events.EventReservationCreated, reservation, user.StudentID)

	return reservation, nil
}

// Cancel moves a reservation from Active to Canceled. Canceled is terminal and
// canceling twice is a no-op. No ownership check is enforced here; the UI only
// exposes a user's own reservations (accepted gap).
func (s *ReservationService) Cancel(ctx context.Context, reservationID int64, actor string) error {
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation.Status == models.StatusCanceled {
		return nil
	}

	if err := s.store.SetCanceled(ctx, reservationID, models.StatusCanceled); err != nil {
		return err
	}

	reservation.Status = models.StatusCanceled
	metrics.IncReservationCanceled()
	s.publishEvent(events.EventReservationCanceled, reservation, actor)

	return nil
}

func (s *ReservationService) ListByUser(ctx context.Context, studentID string) ([]*models.Reservation, error) {
	return s.store.ListByUser(ctx, studentID)
}

func (s *ReservationService) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListAll(ctx)
}

func (s *ReservationService) OccupiedHours(ctx context.Context, desk int, date string) ([]int, error) {
	return s.engine.OccupiedHours(ctx, desk, date)
}

func (s *ReservationService) OccupiedNow(ctx context.Context, desk int) (bool, error) {
	return s.engine.OccupiedNow(ctx, desk)
}

func (s *ReservationService) IsAvailable(ctx context.Context, slot models.Slot) (bool, error) {
	return s.engine.IsAvailable(ctx, slot)
}

func (s *ReservationService) publishEvent(eventType string, r *models.Reservation, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		Desk:          r.Desk,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		StudentID:     r.StudentID,
		UserName:      r.ReservedBy,
		Status:        string(r.Status),
		ChangedBy:     changedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}
