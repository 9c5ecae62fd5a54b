package queue

import "context"

// Job is a unit of work the queue knows how to dispatch. Workers route
// messages to the job whose Type matches the message type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type the job consumes.
	Type() string

	// Handle processes one payload.
	Handle(ctx context.Context, payload interface{}) error
}
