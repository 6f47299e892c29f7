package bridge

import (
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
)

const (
	// MaxWaitMillis caps every caller-supplied long-poll timeout.
	MaxWaitMillis = int64(correlation.MaxWaitTimeout / time.Millisecond)

	// DefaultWaitMillis applies when a result long-poll omits its timeout.
	DefaultWaitMillis = int64(30000)
)

// waitTimeout converts a millisecond query value to a clamped duration.
func waitTimeout(ms int64) time.Duration {
	if ms > MaxWaitMillis {
		ms = MaxWaitMillis
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}
