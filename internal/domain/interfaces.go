package domain

import (
	"context"
	"time"

	"deskbook/internal/models"
)

type Store interface {
	InsertReservation(ctx context.Context, r *models.Reservation) error
	CreateReservationWithLock(ctx context.Context, r *models.Reservation) error
	QueryOverlapping(ctx context.Context, desk int, date, start, end string) ([]*models.Reservation, error)
	QueryActiveReserved(ctx context.Context, desk int, date string) ([]*models.Reservation, error)
	QueryActiveAt(ctx context.Context, desk int, date, instant string) (*models.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListByUser(ctx context.Context, studentID string) ([]*models.Reservation, error)
	ListAll(ctx context.Context) ([]*models.Reservation, error)
	SetCanceled(ctx context.Context, id int64, status models.Status) error

	CreateUser(ctx context.Context, user *models.User) error
	EnsureUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, studentID, password string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	InsertAuditEntry(ctx context.Context, eventType, payload string) error
	ListAuditEntries(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ConflictChecker is the engine surface the lifecycle manager depends on.
type ConflictChecker interface {
	ValidateSlot(slot models.Slot) error
	CheckSlot(ctx context.Context, slot models.Slot) error
	IsAvailable(ctx context.Context, slot models.Slot) (bool, error)
	OccupiedHours(ctx context.Context, desk int, date string) ([]int, error)
	OccupiedNow(ctx context.Context, desk int) (bool, error)
}
