package queue

import "context"

// Publisher hands a message to a queue for downstream consumers
type Publisher interface {
	Send(ctx context.Context, message interface{}) error
}
