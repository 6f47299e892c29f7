package correlation

import "errors"

var (
	// ErrEmptyCommandID is returned when a result or command has no identifier.
	ErrEmptyCommandID = errors.New("correlation: empty command id")

	// ErrDuplicateCommandID is returned by Submit for an identifier that is
	// already pending or completed.
	ErrDuplicateCommandID = errors.New("correlation: duplicate command id")

	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("correlation: correlator is shut down")

	// ErrAlreadyStarted is returned by Start when the janitor is running.
	ErrAlreadyStarted = errors.New("correlation: janitor already started")

	// ErrNotStarted is returned by Stop when the janitor is not running.
	ErrNotStarted = errors.New("correlation: janitor not started")

	// ErrEvictionDisabled is returned by Start when the evict interval is not positive.
	ErrEvictionDisabled = errors.New("correlation: evict interval must be positive")

	// ErrJanitorNotRunning is reported by Healthcheck when eviction is
	// configured but the janitor loop is not running.
	ErrJanitorNotRunning = errors.New("correlation: eviction configured but janitor not running")
)
