package correlation

import (
	"log/slog"
	"time"
)

// Option configures a Correlator.
type Option func(*Correlator)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetention sets how long completed results are kept.
// Zero or negative disables result eviction by the janitor.
func WithRetention(d time.Duration) Option {
	return func(c *Correlator) {
		c.retention = d
	}
}

// WithPendingTTL sets how long an unanswered command stays pending.
// Zero or negative disables pending eviction by the janitor.
func WithPendingTTL(d time.Duration) Option {
	return func(c *Correlator) {
		c.pendingTTL = d
	}
}

// WithEvictInterval sets the janitor tick.
func WithEvictInterval(d time.Duration) Option {
	return func(c *Correlator) {
		c.evictInterval = d
	}
}

// WithMaxWait caps the timeout of a single wait. Values above MaxWaitTimeout
// or not positive are ignored.
func WithMaxWait(d time.Duration) Option {
	return func(c *Correlator) {
		if d > 0 && d <= MaxWaitTimeout {
			c.maxWait = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for an in-flight sweep.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Correlator) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithIDGenerator replaces the UUID generator used by Submit.
func WithIDGenerator(fn func() string) Option {
	return func(c *Correlator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock replaces the wall clock used for timestamps and eviction ages.
// Wait timers always use real time.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) {
		if now != nil {
			c.now = now
		}
	}
}
