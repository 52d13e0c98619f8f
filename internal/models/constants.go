package models

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	// DefaultSessionTTL время жизни сессии
	DefaultSessionTTL = 24 * 60 * 60 // 24 hours in seconds

	// DefaultTimezone фиксированная локаль приложения
	DefaultTimezone = "Asia/Seoul"

	// AuditQueueKey ключ очереди аудита в Redis
	AuditQueueKey = "deskbook:audit:queue"

	// AuditDeadLetterKey ключ для необработанных событий аудита
	AuditDeadLetterKey = "deskbook:audit:deadletter"

	// RateLimitRequests количество запросов в окне
	RateLimitRequests = 30

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // seconds
)

// AuditEntry is a persisted record of a domain event.
type AuditEntry struct {
	ID        int64  `json:"id"`
	EventType string `json:"event_type"`
	Payload   string `json:"payload"`
	CreatedAt string `json:"created_at"`
}
