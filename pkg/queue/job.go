package queue

import "context"

// Job consumes one message type from the queue. Implementations are
// registered before Start and must be safe for concurrent Handle calls,
// since every worker dispatches through the same instance.
type Job interface {
	// Name identifies the worker in logs.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one payload. A returned error schedules a retry
	// until the queue's retry limit, then the message moves to the dead
	// letter list.
	Handle(ctx context.Context, payload interface{}) error
}
