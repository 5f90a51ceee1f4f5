package queue

import "context"

// Job is one background work type the queue knows how to run, such as a
// training session.
type Job interface {
	// Name identifies the job in logs and metrics.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle runs the job against a decoded payload.
	Handle(ctx context.Context, payload interface{}) error
}
