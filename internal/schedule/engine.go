package schedule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"deskbook/internal/database"
	"deskbook/internal/domain"
	"deskbook/internal/models"

	"github.com/rs/zerolog"
)

// Engine is the single source of truth for "can this slot be booked" and
// "which hours are occupied" on a desk.
type Engine struct {
	store  domain.Store
	plan   *models.FloorPlan
	loc    *time.Location
	logger *zerolog.Logger
}

func NewEngine(store domain.Store, plan *models.FloorPlan, loc *time.Location, logger *zerolog.Logger) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:  store,
		plan:   plan,
		loc:    loc,
		logger: logger,
	}
}

// ValidateSlot rejects malformed requests before any store access.
func (e *Engine) ValidateSlot(slot models.Slot) error {
	if e.plan != nil && !e.plan.Contains(slot.Desk) {
		return database.ErrUnknownDesk
	}
	if _, err := time.Parse(models.DateLayout, slot.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", slot.Date, err)
	}
	start, err := time.Parse(models.TimeLayout, slot.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", slot.StartTime, err)
	}
	end, err := time.Parse(models.TimeLayout, slot.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q: %w", slot.EndTime, err)
	}
	if !start.Before(end) {
		return database.ErrInvalidRange
	}
	return nil
}

// CheckSlot returns nil when the slot can be booked. Back-to-back slots do not
// conflict: intervals are half-open, [start, end).
func (e *Engine) CheckSlot(ctx context.Context, slot models.Slot) error {
	if err := e.ValidateSlot(slot); err != nil {
		return err
	}

	conflicts, err := e.store.QueryOverlapping(ctx, slot.Desk, slot.Date, slot.StartTime, slot.EndTime)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return database.ErrSlotUnavailable
	}
	return nil
}

func (e *Engine) IsAvailable(ctx context.Context, slot models.Slot) (bool, error) {
	err := e.CheckSlot(ctx, slot)
	switch err {
	case nil:
		return true, nil
	case database.ErrSlotUnavailable:
		return false, nil
	default:
		return false, err
	}
}

// OccupiedHours returns the sorted set of whole hours touched by active
// reservations on a desk/date. The end hour itself is excluded. Stored end
// hours numerically at or before the start hour are treated as wrapping past
// midnight; that is a display leniency only, the conflict check stays same-day.
func (e *Engine) OccupiedHours(ctx context.Context, desk int, date string) ([]int, error) {
	reservations, err := e.store.QueryActiveReserved(ctx, desk, date)
	if err != nil {
		return nil, err
	}

	occupied := make(map[int]bool)
	for _, r := range reservations {
		startHour, err := parseHour(r.StartTime)
		if err != nil {
			e.logger.Warn().Err(err).Int64("reservation_id", r.ID).Msg("skipping reservation with bad start time")
			continue
		}
		endHour, err := parseHour(r.EndTime)
		if err != nil {
			e.logger.Warn().Err(err).Int64("reservation_id", r.ID).Msg("skipping reservation with bad end time")
			continue
		}
		if endHour <= startHour {
			endHour += 24
		}
		for hour := startHour; hour < endHour; hour++ {
			occupied[hour%24] = true
		}
	}

	hours := make([]int, 0, len(occupied))
	for hour := range occupied {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	return hours, nil
}

// OccupiedNow reports whether the desk is in use at this instant in the
// application locale.
func (e *Engine) OccupiedNow(ctx context.Context, desk int) (bool, error) {
	now := time.Now().In(e.loc)
	current, err := e.store.QueryActiveAt(ctx, desk, now.Format(models.DateLayout), now.Format(models.TimeLayout))
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

func parseHour(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse hour from %q: %w", hhmm, err)
	}
	return hour, nil
}
