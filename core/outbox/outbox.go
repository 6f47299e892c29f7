package outbox

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/logger"
)

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 1000

// MaxPollTimeout bounds a single Next call.
const MaxPollTimeout = 5 * time.Minute

// Config holds outbox settings loadable from the environment.
type Config struct {
	Capacity int `env:"OUTBOX_CAPACITY" envDefault:"1000"`
}

// Stats provides observability counters.
type Stats struct {
	Queued    int   // Commands currently waiting
	Capacity  int   // Configured bound
	Pushed    int64 // Total accepted by Push
	Delivered int64 // Total handed out by Next
	Removed   int64 // Total withdrawn by Remove
	Rejected  int64 // Total refused because the outbox was full
}

// Outbox is a bounded FIFO of commands. Safe for concurrent use.
type Outbox struct {
	mu       sync.Mutex
	items    []correlation.Command
	signal   chan struct{}
	capacity int
	logger   *slog.Logger
	now      func() time.Time

	pushed    atomic.Int64
	delivered atomic.Int64
	removed   atomic.Int64
	rejected  atomic.Int64
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithCapacity bounds the number of queued commands.
func WithCapacity(n int) Option {
	return func(o *Outbox) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger(l *slog.Logger) Option {
	return func(o *Outbox) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an empty Outbox.
func New(opts ...Option) *Outbox {
	o := &Outbox{
		signal:   make(chan struct{}),
		capacity: DefaultCapacity,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// NewFromConfig creates an Outbox from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Outbox {
	return New(append([]Option{WithCapacity(cfg.Capacity)}, opts...)...)
}

// Push appends cmd. CreatedAt is set when zero.
func (o *Outbox) Push(cmd correlation.Command) error {
	if cmd.ID == "" {
		return ErrEmptyCommandID
	}
	if cmd.Type == "" {
		return ErrEmptyCommandType
	}
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = o.now()
	}

	o.mu.Lock()
	if len(o.items) >= o.capacity {
		o.mu.Unlock()
		o.rejected.Add(1)
		o.logger.Warn("outbox full, command rejected",
			logger.Component("outbox"),
			logger.CommandID(cmd.ID),
			logger.Count("capacity", o.capacity))
		return ErrQueueFull
	}
	o.items = append(o.items, cmd)
	// Wake every suspended Next; one of them wins the command.
	close(o.signal)
	o.signal = make(chan struct{})
	o.mu.Unlock()

	o.pushed.Add(1)
	return nil
}

// TryNext pops the oldest command without waiting.
func (o *Outbox) TryNext() (correlation.Command, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.popLocked()
}

func (o *Outbox) popLocked() (correlation.Command, bool) {
	if len(o.items) == 0 {
		return correlation.Command{}, false
	}
	cmd := o.items[0]
	o.items[0] = correlation.Command{}
	o.items = o.items[1:]
	o.delivered.Add(1)
	return cmd, true
}

// Next pops the oldest command, waiting up to timeout for one to arrive.
// It returns false on timeout or when ctx is done. The timeout is clamped
// to MaxPollTimeout; a non-positive timeout does not wait.
func (o *Outbox) Next(ctx context.Context, timeout time.Duration) (correlation.Command, bool) {
	if timeout > MaxPollTimeout {
		timeout = MaxPollTimeout
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		o.mu.Lock()
		if cmd, ok := o.popLocked(); ok {
			o.mu.Unlock()
			return cmd, true
		}
		signal := o.signal
		o.mu.Unlock()

		if expired == nil {
			return correlation.Command{}, false
		}

		select {
		case <-signal:
		case <-expired:
			return correlation.Command{}, false
		case <-ctx.Done():
			return correlation.Command{}, false
		}
	}
}

// List returns a copy of the queued commands in delivery order.
func (o *Outbox) List() []correlation.Command {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.items)
}

// Len returns the number of queued commands.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.items)
}

// Remove withdraws a queued command. It reports whether the command was found.
func (o *Outbox) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	i := slices.IndexFunc(o.items, func(c correlation.Command) bool { return c.ID == id })
	if i < 0 {
		return false
	}
	o.items = slices.Delete(o.items, i, i+1)
	o.removed.Add(1)
	return true
}

// Stats returns current counters.
func (o *Outbox) Stats() Stats {
	o.mu.Lock()
	queued := len(o.items)
	o.mu.Unlock()

	return Stats{
		Queued:    queued,
		Capacity:  o.capacity,
		Pushed:    o.pushed.Load(),
		Delivered: o.delivered.Load(),
		Removed:   o.removed.Load(),
		Rejected:  o.rejected.Load(),
	}
}

// Healthcheck reports ErrQueueFull when the outbox has no free slot, which
// means the executor has stopped pulling.
func (o *Outbox) Healthcheck(ctx context.Context) error {
	if o.Len() >= o.capacity {
		return ErrQueueFull
	}
	return nil
}
