package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// QueueService is the producer side: handlers and consumers enqueue work
// without seeing the worker machinery.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig sizes the worker pool and retry policy.
type QueueConfig struct {
	Workers    int
	RetryLimit int           // attempts before a message lands in the dead letter list
	RetryDelay time.Duration // wait between attempts
}

// Message is the wire envelope for queued work.
type Message struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Attempts  int         `json:"attempts"`
	Timestamp time.Time   `json:"timestamp"`
}

// ParsePayload recovers a typed payload inside a Job. Payloads arrive as
// json.RawMessage after a redis round trip but may be the typed value when
// enqueued and handled in process.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		var result T
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		// maps and slices from generic json decoding: round-trip
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("payload %T not convertible: %w", payload, err)
		}
		var result T
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload %T: %w", payload, err)
		}
		return &result, nil
	}
}
