package worker

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"deskbook/internal/database"
	"deskbook/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	// Clamped at MaxDelay
	assert.Equal(t, 10*time.Second, policy.NextDelay(10))
	// Bad input falls back to attempt 1
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestAuditWorkerPersistsFromMemoryQueue(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	w := NewAuditWorker(db, nil, RetryPolicy{}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	payload, _ := json.Marshal(map[string]any{"reservation_id": 1, "desk": 3})
	err = w.HandleEvent(&events.Event{
		Type:      events.EventReservationCreated,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		entries, err := db.ListAuditEntries(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 50*time.Millisecond)

	entries, err := db.ListAuditEntries(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, events.EventReservationCreated, entries[0].EventType)
	assert.Contains(t, entries[0].Payload, `"desk":3`)
}

func TestAuditWorkerDrainsRedisQueue(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	w := NewAuditWorker(db, client, RetryPolicy{}, &logger)

	payload, _ := json.Marshal(map[string]any{"student_id": "20240001"})
	err = w.HandleEvent(&events.Event{
		Type:      events.EventUserRegistered,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.Eventually(t, func() bool {
		entries, err := db.ListAuditEntries(context.Background(), 10)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 50*time.Millisecond)
}
