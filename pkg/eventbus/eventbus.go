package eventbus

import (
	"context"
	"encoding/json"
	"time"
)

// Event is anything that can travel over a Bus.
type Event interface {
	Type() string
}

// HandlerFunc handles one event. A returned error sends the event to the
// dead-letter log.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus publishes events to the handlers registered for their type.
type Bus interface {
	Emit(ctx context.Context, event Event) error
	Register(eventType string, handler HandlerFunc)
}

// Factories maps an event type to a constructor, so transports that carry
// JSON can rebuild the concrete event.
type Factories map[string]func() Event

// DeadLetter is an event whose handler failed.
type DeadLetter struct {
	ID        string          `json:"id"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	FailedAt  time.Time       `json:"failedAt"`
}

// DeadLetterReader lists recent dead letters, newest first.
type DeadLetterReader interface {
	DeadLetters(ctx context.Context, limit int) ([]DeadLetter, error)
}
