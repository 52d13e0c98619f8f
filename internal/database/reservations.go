package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deskbook/internal/models"
)

const reservationColumns = `id, desk, date, start_time, end_time, reserved_by, student_id, canceled`

// overlapPredicate reproduces the original conflict rule: an active reservation
// conflicts with the requested [start, end) iff
// (start_time < end AND end_time > start) OR (start_time >= start AND start_time < end).
const overlapPredicate = `desk = ? AND date = ?
              AND ((start_time < ? AND end_time > ?)
              OR (start_time >= ? AND start_time < ?))
              AND canceled = 'N'`

func (db *DB) InsertReservation(ctx context.Context, r *models.Reservation) error {
	query := `INSERT INTO reservations (desk, date, start_time, end_time, reserved_by, student_id, canceled)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		r.Desk, r.Date, r.StartTime, r.EndTime, r.ReservedBy, r.StudentID, models.StatusActive.Flag())
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.Status = models.StatusActive
	return nil
}

// CreateReservationWithLock checks the slot and inserts the reservation inside
// a single transaction, so two concurrent booking attempts for the same slot
// cannot both pass the availability check.
func (db *DB) CreateReservationWithLock(ctx context.Context, r *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var conflicts int
	queryCount := `SELECT COUNT(*) FROM reservations WHERE ` + overlapPredicate
	err = tx.QueryRowContext(ctx, queryCount,
		r.Desk, r.Date, r.EndTime, r.StartTime, r.StartTime, r.EndTime).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotUnavailable
	}

	queryInsert := `INSERT INTO reservations (desk, date, start_time, end_time, reserved_by, student_id, canceled)
                    VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		r.Desk, r.Date, r.StartTime, r.EndTime, r.ReservedBy, r.StudentID, models.StatusActive.Flag())
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	r.ID = id
	r.Status = models.StatusActive

	return tx.Commit()
}

func (db *DB) QueryOverlapping(ctx context.Context, desk int, date, start, end string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + overlapPredicate
	rows, err := db.QueryContext(ctx, query, desk, date, end, start, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// QueryActiveReserved returns the active intervals for a desk/date, used for
// the occupied-hour display.
func (db *DB) QueryActiveReserved(ctx context.Context, desk int, date string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE desk = ? AND date = ? AND canceled = 'N'
              ORDER BY start_time`
	rows, err := db.QueryContext(ctx, query, desk, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// QueryActiveAt returns the active reservation covering a single instant, if any.
func (db *DB) QueryActiveAt(ctx context.Context, desk int, date, instant string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE desk = ? AND date = ?
              AND start_time <= ? AND end_time > ?
              AND canceled = 'N'`
	r, err := db.queryReservation(ctx, query, desk, date, instant, instant)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return db.queryReservation(ctx, query, id)
}

func (db *DB) ListByUser(ctx context.Context, studentID string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE student_id = ?
              ORDER BY date, start_time`
	rows, err := db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func (db *DB) ListAll(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations
              ORDER BY date, start_time`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// SetCanceled updates the canceled flag. Setting the same value twice is a no-op.
func (db *DB) SetCanceled(ctx context.Context, id int64, status models.Status) error {
	query := `UPDATE reservations SET canceled = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status.Flag(), id)
	if err != nil {
		return fmt.Errorf("failed to set canceled flag: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryReservation(ctx context.Context, query string, args ...interface{}) (*models.Reservation, error) {
	var r models.Reservation
	var flag string
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.Desk, &r.Date, &r.StartTime, &r.EndTime, &r.ReservedBy, &r.StudentID, &flag,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	r.Status = models.StatusFromFlag(flag)
	return &r, nil
}

func scanReservations(rows *sql.Rows) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		var flag string
		err := rows.Scan(&r.ID, &r.Desk, &r.Date, &r.StartTime, &r.EndTime, &r.ReservedBy, &r.StudentID, &flag)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		r.Status = models.StatusFromFlag(flag)
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
