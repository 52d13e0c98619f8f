package schedule

import (
	"context"
	"os"
	"testing"
	"time"

	"deskbook/internal/database"
	"deskbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*Engine, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)

	plan := &models.FloorPlan{Rows: [][]int{{1, 2, 3}, {4, 5, 6}}}
	engine := NewEngine(db, plan, time.UTC, &logger)
	return engine, db
}

func insertReservation(t *testing.T, db *database.DB, desk int, date, start, end string) *models.Reservation {
	r := &models.Reservation{
		Desk:       desk,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		ReservedBy: "Kim Minji",
		StudentID:  "20240001",
	}
	require.NoError(t, db.InsertReservation(context.Background(), r))
	return r
}

func TestValidateSlot(t *testing.T) {
	engine, db := setupEngine(t)
	defer db.Close()

	valid := models.Slot{Desk: 1, Date: "2026-09-01", StartTime: "09:00", EndTime: "10:00"}
	assert.NoError(t, engine.ValidateSlot(valid))

	unknownDesk := valid
	unknownDesk.Desk = 42
	assert.ErrorIs(t, engine.ValidateSlot(unknownDesk), database.ErrUnknownDesk)

	badDate := valid
	badDate.Date = "01-09-2026"
	assert.Error(t, engine.ValidateSlot(badDate))

	badStart := valid
	badStart.StartTime = "9am"
	assert.Error(t, engine.ValidateSlot(badStart))

	reversed := valid
	reversed.StartTime = "11:00"
	reversed.EndTime = "10:00"
	assert.ErrorIs(t, engine.ValidateSlot(reversed), database.ErrInvalidRange)

	zeroLength := valid
	zeroLength.EndTime = zeroLength.StartTime
	assert.ErrorIs(t, engine.ValidateSlot(zeroLength), database.ErrInvalidRange)
}

func TestCheckSlot(t *testing.T) {
	engine, db := setupEngine(t)
	defer db.Close()

	ctx := context.Background()
	insertReservation(t, db, 1, "2026-09-01", "09:00", "12:00")

	err := engine.CheckSlot(ctx, models.Slot{Desk: 1, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00"})
	assert.ErrorIs(t, err, database.ErrSlotUnavailable)

	// Back-to-back is fine
	err = engine.CheckSlot(ctx, models.Slot{Desk: 1, Date: "2026-09-01", StartTime: "12:00", EndTime: "13:00"})
	assert.NoError(t, err)

	available, err := engine.IsAvailable(ctx, models.Slot{Desk: 1, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
	assert.False(t, available)

	available, err = engine.IsAvailable(ctx, models.Slot{Desk: 2, Date: "2026-09-01", StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
	assert.True(t, available)
}

func TestOccupiedHours(t *testing.T) {
	engine, db := setupEngine(t)
	defer db.Close()

	ctx := context.Background()

	insertReservation(t, db, 3, "2026-09-01", "14:00", "16:00")
	insertReservation(t, db, 3, "2026-09-01", "09:00", "10:00")

	hours, err := engine.OccupiedHours(ctx, 3, "2026-09-01")
	require.NoError(t, err)
	// End hour excluded: 14:00-16:00 occupies 14 and 15 only
	assert.Equal(t, []int{9, 14, 15}, hours)

	hours, err = engine.OccupiedHours(ctx, 3, "2026-09-02")
	require.NoError(t, err)
	assert.Empty(t, hours)
}

func TestOccupiedHoursMidnightWrap(t *testing.T) {
	engine, db := setupEngine(t)
	defer db.Close()

	ctx := context.Background()

	// A stored 22:00-02:00 row renders as wrapping past midnight
	r := &models.Reservation{
		Desk: 4, Date: "2026-09-01", StartTime: "22:00", EndTime: "02:00",
		ReservedBy: "Kim Minji", StudentID: "20240001",
	}
	require.NoError(t, db.InsertReservation(ctx, r))

	hours, err := engine.OccupiedHours(ctx, 4, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 22, 23}, hours)
}

func TestOccupiedHoursDeduplicates(t *testing.T) {
	engine, db := setupEngine(t)
	defer db.Close()

	ctx := context.Background()

	insertReservation(t, db, 5, "2026-09-01", "09:00", "11:00")
	// Different user, adjacent interval touching hour 11
	other := &models.Reservation{
		Desk: 5, Date: "2026-09-01", StartTime: "11:00", EndTime: "12:00",
		ReservedBy: "Lee Jun", StudentID: "20240099",
	}
	require.NoError(t, db.InsertReservation(ctx, other))

	hours, err := engine.OccupiedHours(ctx, 5, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10, 11}, hours)
}
