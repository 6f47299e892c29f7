package correlation

import "time"

// Result is the outcome of a command as reported by the executor.
type Result struct {
	CommandID string `json:"commandId"`
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	// Timestamp is in Unix milliseconds. AddResult fills it when zero.
	Timestamp int64 `json:"timestamp"`
}

// Time returns Timestamp as a time.Time.
func (r Result) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Command is a unit of work dispatched to the executor.
type Command struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Target    string    `json:"target,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status is the lifecycle state of a command identifier.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}
