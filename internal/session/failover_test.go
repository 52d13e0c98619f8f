package session

import (
	"context"
	"os"
	"testing"
	"time"

	"deskbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailoverSwitchesToFallback(t *testing.T) {
	logger := zerolog.New(os.Stdout)

	// Client pointing nowhere makes the primary fail
	deadClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer deadClient.Close()

	primary := NewRedisSessionRepository(deadClient, time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)

	ctx := context.Background()
	sess := &models.Session{Token: "tok-1", StudentID: "20240001", IsAuthenticated: true}

	require.NoError(t, repo.SetSession(ctx, sess))

	got, err := repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "20240001", got.StudentID)

	require.NoError(t, repo.ClearSession(ctx, "tok-1"))
	got, err = repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	logger := zerolog.New(os.Stdout)

	primary := NewMemorySessionRepository(time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)

	ctx := context.Background()
	sess := &models.Session{Token: "tok-1", StudentID: "20240001", IsAuthenticated: true}
	require.NoError(t, repo.SetSession(ctx, sess))

	// The session landed in the primary only
	got, err := primary.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = fallback.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFailoverRateLimit(t *testing.T) {
	logger := zerolog.New(os.Stdout)

	deadClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer deadClient.Close()

	primary := NewRedisSessionRepository(deadClient, time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)

	ctx := context.Background()

	allowed, err := repo.CheckRateLimit(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
