package outbox

import "errors"

var (
	// ErrQueueFull is returned by Push when the outbox is at capacity.
	ErrQueueFull = errors.New("outbox: queue is full")

	// ErrEmptyCommandID is returned by Push for a command without an ID.
	ErrEmptyCommandID = errors.New("outbox: empty command id")

	// ErrEmptyCommandType is returned by Push for a command without a type.
	ErrEmptyCommandType = errors.New("outbox: empty command type")
)
