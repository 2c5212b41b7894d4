package queue

import "context"

// Job handles every message of one type.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload []byte) error
}
