package service

import (
	"context"
	"os"
	"testing"
	"time"

	"deskbook/internal/config"
	"deskbook/internal/database"
	"deskbook/internal/events"
	"deskbook/internal/models"
	"deskbook/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdentityService(t *testing.T) (*IdentityService, *database.DB) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)

	sessions := session.NewMemorySessionRepository(time.Hour)
	admin := config.AdminConfig{StudentID: "admin", Password: "admin-secret", Name: "Administrator"}
	svc := NewIdentityService(db, sessions, events.NewEventBus(), admin, time.Hour, &logger)
	return svc, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))

	sess, err := svc.Login(ctx, "20240001", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "20240001", sess.StudentID)
	assert.Equal(t, "Kim Minji", sess.UserName)
	assert.Equal(t, models.RoleUser, sess.Role)
	assert.True(t, sess.IsAuthenticated)
	assert.False(t, sess.IsAdmin())
}

func TestRegisterValidation(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()

	assert.ErrorIs(t, svc.Register(ctx, "", "secret", "Kim Minji"), ErrMissingFields)
	assert.ErrorIs(t, svc.Register(ctx, "20240001", "", "Kim Minji"), ErrMissingFields)
	assert.ErrorIs(t, svc.Register(ctx, "20240001", "secret", ""), ErrMissingFields)

	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))
	assert.ErrorIs(t, svc.Register(ctx, "20240001", "other", "Someone"), database.ErrDuplicateKey)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))

	// Wrong password and unknown id fail identically
	_, err := svc.Login(ctx, "20240001", "wrong")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "99999999", "secret")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)
}

func TestLoginThrottled(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))

	for i := 0; i < models.RateLimitRequests; i++ {
		_, err := svc.Login(ctx, "20240001", "wrong")
		require.ErrorIs(t, err, database.ErrInvalidCredentials)
	}

	// Even the right password is rejected once the window is exhausted
	_, err := svc.Login(ctx, "20240001", "secret")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Other accounts are unaffected
	require.NoError(t, svc.Register(ctx, "20240002", "secret", "Lee Jun"))
	_, err = svc.Login(ctx, "20240002", "secret")
	assert.NoError(t, err)
}

func TestAdminSeedAndRole(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, svc.SeedAdmin(ctx))

	sess, err := svc.Login(ctx, "admin", "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Role)
	assert.True(t, sess.IsAdmin())

	// Seeding again leaves the existing account alone
	require.NoError(t, svc.SeedAdmin(ctx))
	_, err = svc.Login(ctx, "admin", "admin-secret")
	assert.NoError(t, err)
}

func TestAuthenticateLifecycle(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "no-such-token")
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)

	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))
	sess, err := svc.Login(ctx, "20240001", "secret")
	require.NoError(t, err)

	resolved, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "20240001", resolved.StudentID)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)
}

func TestSetSelection(t *testing.T) {
	svc, db := setupIdentityService(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, "20240001", "secret", "Kim Minji"))
	sess, err := svc.Login(ctx, "20240001", "secret")
	require.NoError(t, err)

	selection := models.Selection{Desk: 7, Date: "2026-09-01"}
	require.NoError(t, svc.SetSelection(ctx, sess.Token, selection))

	resolved, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, selection, resolved.Selection)

	err = svc.SetSelection(ctx, "bogus", selection)
	assert.ErrorIs(t, err, database.ErrInvalidCredentials)
}
