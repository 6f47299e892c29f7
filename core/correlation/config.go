package correlation

import "time"

const (
	// DefaultRetention is how long completed results stay retrievable.
	DefaultRetention = 10 * time.Minute

	// DefaultPendingTTL bounds how long an unanswered command stays pending.
	DefaultPendingTTL = 30 * time.Minute

	// DefaultEvictInterval is the janitor tick.
	DefaultEvictInterval = time.Minute

	// MaxWaitTimeout is the upper bound applied to a single wait.
	MaxWaitTimeout = 5 * time.Minute

	// DefaultShutdownTimeout bounds Stop.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds correlator settings loadable from the environment.
type Config struct {
	Retention       time.Duration `env:"CORRELATION_RETENTION" envDefault:"10m"`
	PendingTTL      time.Duration `env:"CORRELATION_PENDING_TTL" envDefault:"30m"`
	EvictInterval   time.Duration `env:"CORRELATION_EVICT_INTERVAL" envDefault:"1m"`
	MaxWait         time.Duration `env:"CORRELATION_MAX_WAIT" envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"CORRELATION_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// NewFromConfig creates a Correlator from cfg. Options are applied after the
// config values and may override them.
func NewFromConfig(cfg Config, opts ...Option) *Correlator {
	base := []Option{
		WithRetention(cfg.Retention),
		WithPendingTTL(cfg.PendingTTL),
		WithEvictInterval(cfg.EvictInterval),
		WithMaxWait(cfg.MaxWait),
		WithShutdownTimeout(cfg.ShutdownTimeout),
	}
	return New(append(base, opts...)...)
}
