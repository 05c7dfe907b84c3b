package queue

import (
	"context"
	"time"
)

// TopicAutopilotRuns carries one RunJob per owner per scheduler tick.
const TopicAutopilotRuns = "autopilot_runs"

// DefaultMaxRetries is how many times a failed job is redelivered before it is dropped.
const DefaultMaxRetries = 3

// Handler processes one JSON payload. A non-nil error asks for redelivery.
type Handler func(ctx context.Context, payload []byte) error

type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, handler Handler) error
	Close() error
}

// RunJob asks a worker to evaluate the owner's schedules at TickAt.
type RunJob struct {
	UserID string    `json:"user_id"`
	TickAt time.Time `json:"tick_at"`
}
