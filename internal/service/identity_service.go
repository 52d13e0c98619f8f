package service

import (
	"context"
	"errors"
	"time"

	"deskbook/internal/config"
	"deskbook/internal/database"
	"deskbook/internal/domain"
	"deskbook/internal/events"
	"deskbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrMissingFields is returned when a registration form is incomplete.
	ErrMissingFields = errors.New("name, student id and password are all required")

	// ErrTooManyAttempts throttles repeated logins for the same student id.
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")
)

// IdentityService handles registration, login and session lifecycle. The
// administrator is a regular seeded account; only role resolution treats its
// student id specially.
type IdentityService struct {
	store    domain.Store
	sessions domain.SessionRepository
	eventBus domain.EventPublisher
	admin    config.AdminConfig
	ttl      time.Duration
	logger   *zerolog.Logger
}

func NewIdentityService(store domain.Store, sessions domain.SessionRepository, eventBus domain.EventPublisher, admin config.AdminConfig, ttl time.Duration, logger *zerolog.Logger) *IdentityService {
	return &IdentityService{
		store:    store,
		sessions: sessions,
		eventBus: eventBus,
		admin:    admin,
		ttl:      ttl,
		logger:   logger,
	}
}

// SeedAdmin makes sure the configured admin account exists. An existing row is
// left untouched so a changed config password never silently rewrites it.
func (s *IdentityService) SeedAdmin(ctx context.Context) error {
	return s.store.EnsureUser(ctx, &models.User{
		StudentID: s.admin.StudentID,
		Password:  s.admin.Password,
		Name:      s.admin.Name,
	})
}

func (s *IdentityService) Register(ctx context.Context, studentID, password, name string) error {
	if studentID == "" || password == "" || name == "" {
		return ErrMissingFields
	}

	err := s.store.CreateUser(ctx, &models.User{StudentID: studentID, Password: password, Name: name})
	if err != nil {
		return err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventUserRegistered, events.UserEventPayload{StudentID: studentID, Name: name}); err != nil {
			s.logger.Error().Err(err).Str("student_id", studentID).Msg("publish event error")
		}
	}
	return nil
}

// Login authenticates and constructs a fresh session. The error is the same
// whether the id or the password was wrong.
func (s *IdentityService) Login(ctx context.Context, studentID, password string) (*models.Session, error) {
	allowed, err := s.sessions.CheckRateLimit(ctx, "login:"+studentID, models.RateLimitRequests, models.RateLimitWindow*time.Second)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login rate limit check failed, allowing attempt")
	} else if !allowed {
		return nil, ErrTooManyAttempts
	}

	user, err := s.store.FindUser(ctx, studentID, password)
	if err != nil {
		return nil, err
	}

	role := models.RoleUser
	if user.StudentID == s.admin.StudentID {
		role = models.RoleAdmin
	}

	session := &models.Session{
		Token:           uuid.NewString(),
		StudentID:       user.StudentID,
		UserName:        user.Name,
		Role:            role,
		IsAuthenticated: true,
		CreatedAt:       time.Now(),
	}

	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().Str("student_id", user.StudentID).Str("role", string(role)).Msg("user logged in")
	return session, nil
}

func (s *IdentityService) Logout(ctx context.Context, token string) error {
	return s.sessions.ClearSession(ctx, token)
}

// Authenticate resolves a session token. A missing or expired session yields
// ErrInvalidCredentials.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, database.ErrInvalidCredentials
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsAuthenticated {
		return nil, database.ErrInvalidCredentials
	}
	return session, nil
}

// SetSelection records the desk/date the user is looking at on their session.
func (s *IdentityService) SetSelection(ctx context.Context, token string, selection models.Selection) error {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	session.Selection = selection
	return s.sessions.SetSession(ctx, session)
}

func (s *IdentityService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}
