package models

import (
	"time"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "PENDING"
	OutboxEventStatusPublished OutboxEventStatus = "PUBLISHED"
	OutboxEventStatusFailed    OutboxEventStatus = "FAILED"
)

// OutboxEvent represents an event in the transactional outbox. Round results
// and session status transitions are written together with their outbox row
// in one transaction; a separate relay publishes them downstream.
type OutboxEvent struct {
	ID          string                 `json:"id" db:"id"`
	EventType   string                 `json:"event_type" db:"event_type"`
	Payload     map[string]interface{} `json:"payload" db:"payload"`
	Status      OutboxEventStatus      `json:"status" db:"status"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	PublishedAt *time.Time             `json:"published_at,omitempty" db:"published_at"`
	RetryCount  int                    `json:"retry_count" db:"retry_count"`
	LastError   *string                `json:"last_error,omitempty" db:"last_error"`
}

// Event types
const (
	EventTypeDebateCreated   = "debate.created"
	EventTypeDebateStarted   = "debate.started"
	EventTypeRoundCompleted  = "debate.round_completed"
	EventTypeDebateCompleted = "debate.completed"
	EventTypeDebateFailed    = "debate.failed"
)
