package worker

import (
	"context"
	"encoding/json"
	"time"

	"deskbook/internal/domain"
	"deskbook/internal/events"
	"deskbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// auditTask is the serialized form of an event waiting to be persisted.
type auditTask struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditWorker drains domain events into the audit_log table. Events go through
// a redis list so a slow store never blocks the request path; without redis the
// worker falls back to an in-process channel.
type AuditWorker struct {
	store       domain.Store
	redis       *redis.Client
	queue       chan auditTask
	retryPolicy RetryPolicy
	pollTimeout time.Duration
	logger      *zerolog.Logger
}

// NewAuditWorker builds a worker with sane defaults.
func NewAuditWorker(store domain.Store, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *AuditWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &AuditWorker{
		store:       store,
		redis:       redisClient,
		queue:       make(chan auditTask, 128),
		retryPolicy: retry,
		pollTimeout: 2 * time.Second,
		logger:      logger,
	}
}

// HandleEvent is the event bus subscription point.
func (w *AuditWorker) HandleEvent(event *events.Event) error {
	task := auditTask{
		EventType: event.Type,
		Payload:   append(json.RawMessage(nil), event.Payload...),
		CreatedAt: event.CreatedAt,
	}

	if w.redis != nil {
		data, err := json.Marshal(task)
		if err != nil {
			return err
		}
		if err := w.redis.LPush(context.Background(), models.AuditQueueKey, data).Err(); err == nil {
			return nil
		} else {
			w.logger.Warn().Err(err).Msg("redis audit enqueue failed, using in-memory queue")
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Error().Str("event_type", task.EventType).Msg("audit queue is full, dropping event")
	}
	return nil
}

// Run processes queued events until the context is canceled.
func (w *AuditWorker) Run(ctx context.Context) {
	w.logger.Info().Msg("audit worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("audit worker stopped")
			return
		case task := <-w.queue:
			w.persist(ctx, task)
		default:
			task, ok := w.popRedis(ctx)
			if !ok {
				select {
				case <-ctx.Done():
					return
				case t := <-w.queue:
					w.persist(ctx, t)
				case <-time.After(w.pollTimeout):
				}
				continue
			}
			w.persist(ctx, task)
		}
	}
}

func (w *AuditWorker) popRedis(ctx context.Context) (auditTask, bool) {
	var task auditTask
	if w.redis == nil {
		return task, false
	}

	res, err := w.redis.BRPop(ctx, w.pollTimeout, models.AuditQueueKey).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("redis audit dequeue failed")
		}
		return task, false
	}
	// BRPop returns [key, value].
	if len(res) < 2 {
		return task, false
	}
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("failed to decode audit task")
		return task, false
	}
	return task, true
}

func (w *AuditWorker) persist(ctx context.Context, task auditTask) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		lastErr = w.store.InsertAuditEntry(ctx, task.EventType, string(task.Payload))
		if lastErr == nil {
			return
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Msg("audit insert failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	w.logger.Error().Err(lastErr).Str("event_type", task.EventType).Msg("audit insert exhausted retries")
	w.deadLetter(ctx, task)
}

func (w *AuditWorker) deadLetter(ctx context.Context, task auditTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, models.AuditDeadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Msg("failed to push audit task to dead letter queue")
	}
}
