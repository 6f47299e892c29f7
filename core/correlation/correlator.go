package correlation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pluginbridge/core/logger"
	"github.com/dmitrymomot/pluginbridge/pkg/async"
)

// Correlator matches executor results to commands and fans them out to
// waiters and subscribers. The zero value is not usable; call New.
type Correlator struct {
	// mu guards every piece of correlation state.
	mu      sync.Mutex
	store   *resultStore
	pending *pendingRegistry
	waiters *waiterManager
	bus     *subscriptionBus
	closed  bool

	// notifyMu serializes AddResult end to end. It is always taken before
	// mu, and mu is released before any waiter or subscriber runs.
	notifyMu sync.Mutex

	retention       time.Duration
	pendingTTL      time.Duration
	evictInterval   time.Duration
	maxWait         time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	newID           func() string
	now             func() time.Time

	// janitor lifecycle
	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	resultsAdded     atomic.Int64
	resultsReplaced  atomic.Int64
	waitsResolved    atomic.Int64
	waitsTimedOut    atomic.Int64
	waitsCancelled   atomic.Int64
	resultsEvicted   atomic.Int64
	pendingEvicted   atomic.Int64
	notifications    atomic.Int64
	subscriberPanics atomic.Int64
}

// Stats is a point-in-time view of the correlator.
type Stats struct {
	StoredResults    int
	PendingCommands  int
	ActiveWaiters    int
	Subscribers      int
	ResultsAdded     int64
	ResultsReplaced  int64
	WaitsResolved    int64
	WaitsTimedOut    int64
	WaitsCancelled   int64
	ResultsEvicted   int64
	PendingEvicted   int64
	Notifications    int64
	SubscriberPanics int64
	IsRunning        bool
	Closed           bool
}

// New creates a Correlator with default settings.
func New(opts ...Option) *Correlator {
	c := &Correlator{
		store:           newResultStore(),
		pending:         newPendingRegistry(),
		waiters:         newWaiterManager(),
		bus:             newSubscriptionBus(),
		retention:       DefaultRetention,
		pendingTTL:      DefaultPendingTTL,
		evictInterval:   DefaultEvictInterval,
		maxWait:         MaxWaitTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:           uuid.NewString,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit registers cmd as pending and returns its ID. An empty cmd.ID is
// replaced with a fresh UUID.
func (c *Correlator) Submit(cmd Command) (string, error) {
	id := cmd.ID
	if id == "" {
		id = c.newID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	if c.pending.isPending(id) || c.store.has(id) {
		return "", fmt.Errorf("%w: %s", ErrDuplicateCommandID, id)
	}
	c.pending.markPending(id, c.now())

	return id, nil
}

// MarkPending registers an externally allocated ID as pending. It is a no-op
// for IDs that are already pending or completed.
func (c *Correlator) MarkPending(id string) error {
	if id == "" {
		return ErrEmptyCommandID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.store.has(id) {
		return nil
	}
	c.pending.markPending(id, c.now())

	return nil
}

// AddResult stores r, clears its pending mark, resolves every waiter for
// r.CommandID and notifies subscribers. Timestamp is set when zero.
// It returns the stored value.
func (c *Correlator) AddResult(r Result) (Result, error) {
	if r.CommandID == "" {
		return Result{}, ErrEmptyCommandID
	}

	now := c.now()
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}

	replaced := c.store.put(r, now)
	c.pending.clearPending(r.CommandID)
	waiters := c.waiters.take(r.CommandID)
	for _, w := range waiters {
		w.timer.Stop()
	}
	subs := c.bus.snapshot()
	c.mu.Unlock()

	c.resultsAdded.Add(1)
	if replaced {
		c.resultsReplaced.Add(1)
		c.logger.Debug("result replaced",
			logger.Component("correlation"),
			logger.CommandID(r.CommandID))
	}

	for _, w := range waiters {
		if w.resolve(r, nil) {
			c.waitsResolved.Add(1)
		}
	}

	for _, s := range subs {
		c.deliver(s, r)
	}

	return r, nil
}

// deliver invokes one subscriber, isolating its panics.
func (c *Correlator) deliver(s *subscription, r Result) {
	if !s.active.Load() {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.subscriberPanics.Add(1)
			c.logger.Error("subscriber panicked",
				logger.Component("correlation"),
				logger.CommandID(r.CommandID),
				logger.Panic(rec))
		}
	}()

	c.notifications.Add(1)
	s.fn(r)
}

// ClearPending drops the pending mark for id without touching a stored
// result. Use it when a submitted command could not be dispatched.
func (c *Correlator) ClearPending(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending.clearPending(id)
}

// GetResult returns the stored result for id.
func (c *Correlator) GetResult(id string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.get(id)
}

// HasPendingCommand reports whether id was dispatched and has no result yet.
func (c *Correlator) HasPendingCommand(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending.isPending(id)
}

// Status returns the lifecycle state of id.
func (c *Correlator) Status(id string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.store.has(id):
		return StatusCompleted
	case c.pending.isPending(id):
		return StatusPending
	default:
		return StatusUnknown
	}
}

// WaitAsync registers a waiter for id and returns its future along with a
// cancel func that withdraws the waiter. The future resolves with the
// result, with async.ErrTimeout when timeout elapses, with
// context.Canceled after cancel, or with ErrClosed on Shutdown.
//
// A stored result resolves the future immediately. A non-positive timeout
// never suspends. The timeout is clamped to the configured maximum.
func (c *Correlator) WaitAsync(id string, timeout time.Duration) (*async.Future[Result], func()) {
	noop := func() {}
	if timeout > c.maxWait {
		timeout = c.maxWait
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return async.Resolved(Result{}, ErrClosed), noop
	}
	if r, ok := c.store.get(id); ok {
		c.waitsResolved.Add(1)
		return async.Resolved(r, nil), noop
	}
	if timeout <= 0 {
		c.waitsTimedOut.Add(1)
		return async.Resolved(Result{}, async.ErrTimeout), noop
	}

	future, resolve := async.NewPromise[Result]()
	w := &waiter{
		id:       id,
		deadline: c.now().Add(timeout),
		resolve:  resolve,
	}
	c.waiters.add(w)
	// The callback needs mu, so it cannot observe w before timer is set.
	w.timer = time.AfterFunc(timeout, func() { c.expire(w, async.ErrTimeout) })

	return future, func() { c.expire(w, context.Canceled) }
}

// expire withdraws w and resolves it with reason unless a result or
// shutdown already took it.
func (c *Correlator) expire(w *waiter, reason error) {
	c.mu.Lock()
	removed := c.waiters.remove(w)
	c.mu.Unlock()

	if !removed {
		return
	}

	w.timer.Stop()
	if !w.resolve(Result{}, reason) {
		return
	}

	if errors.Is(reason, async.ErrTimeout) {
		c.waitsTimedOut.Add(1)
		c.logger.Debug("wait timed out",
			logger.Component("correlation"),
			logger.CommandID(w.id))
		return
	}
	c.waitsCancelled.Add(1)
}

// WaitForResult blocks until a result for id is stored, timeout elapses or
// ctx is done. The boolean is false on timeout, cancellation or shutdown.
func (c *Correlator) WaitForResult(ctx context.Context, id string, timeout time.Duration) (Result, bool) {
	future, cancel := c.WaitAsync(id, timeout)

	select {
	case <-future.Done():
	case <-ctx.Done():
		cancel()
	}

	r, err := future.Await()
	return r, err == nil
}

// OnResult subscribes fn to every result stored after this call. fn runs
// synchronously in store order and must not call AddResult. The returned
// func unsubscribes and is idempotent.
func (c *Correlator) OnResult(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}
	s := c.bus.add(fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.bus.remove(s)
			c.mu.Unlock()
		})
	}
}

// EvictOlderThan removes results stored more than maxAge ago. Results with
// active waiters are kept. It returns the number removed.
func (c *Correlator) EvictOlderThan(maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge)

	c.mu.Lock()
	removed := c.store.evictOlderThan(cutoff, c.waiters.has)
	c.mu.Unlock()

	c.resultsEvicted.Add(int64(removed))
	return removed
}

// EvictAbandoned removes pending marks older than maxAge for commands that
// never got a result and have no active waiter.
func (c *Correlator) EvictAbandoned(maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge)

	c.mu.Lock()
	removed := c.pending.evictOlderThan(cutoff, c.waiters.has)
	c.mu.Unlock()

	c.pendingEvicted.Add(int64(removed))
	return removed
}

// sweep runs one eviction pass with the configured ages.
func (c *Correlator) sweep(ctx context.Context) {
	var results, abandoned int
	if c.retention > 0 {
		results = c.EvictOlderThan(c.retention)
	}
	if c.pendingTTL > 0 {
		abandoned = c.EvictAbandoned(c.pendingTTL)
	}

	if results > 0 || abandoned > 0 {
		c.logger.InfoContext(ctx, "correlation sweep",
			logger.Component("correlation"),
			slog.Int("results_evicted", results),
			slog.Int("pending_evicted", abandoned))
	}
}

// Start runs the eviction janitor until ctx is cancelled or Stop is called.
// It blocks.
func (c *Correlator) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	if c.cancel != nil {
		c.lifeMu.Unlock()
		return ErrAlreadyStarted
	}
	if c.evictInterval <= 0 {
		c.lifeMu.Unlock()
		return ErrEvictionDisabled
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.lifeMu.Unlock()

	c.running.Store(true)
	defer c.running.Store(false)

	c.logger.InfoContext(ctx, "correlation janitor started",
		logger.Component("correlation"),
		slog.Duration("evict_interval", c.evictInterval))

	ticker := time.NewTicker(c.evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(context.Background(), "correlation janitor stopping",
				logger.Component("correlation"))
			return ctx.Err()
		case <-ticker.C:
			c.wg.Add(1)
			c.sweep(ctx)
			c.wg.Done()
		}
	}
}

// Stop cancels the janitor and waits for an in-flight sweep.
func (c *Correlator) Stop() error {
	c.lifeMu.Lock()
	if c.cancel == nil {
		c.lifeMu.Unlock()
		return ErrNotStarted
	}
	cancel := c.cancel
	c.cancel = nil
	c.lifeMu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.logger.Warn("correlation janitor shutdown timeout exceeded",
			logger.Component("correlation"),
			logger.Timeout(c.shutdownTimeout))
		return fmt.Errorf("correlation: shutdown timeout exceeded after %s", c.shutdownTimeout)
	}
}

// Run returns a func suitable for errgroup.Go. It starts the janitor and,
// once ctx is done, stops it and shuts the correlator down. With eviction
// disabled it only waits for ctx.
func (c *Correlator) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = c.Stop()
			<-errCh
			c.Shutdown()
			return nil
		case err := <-errCh:
			switch {
			case errors.Is(err, ErrEvictionDisabled):
				// No janitor; still release waiters on shutdown.
				<-ctx.Done()
				c.Shutdown()
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				c.Shutdown()
				return nil
			}
			return err
		}
	}
}

// Shutdown resolves all outstanding waiters with absence, drops every
// subscriber and rejects further writes. It is idempotent.
func (c *Correlator) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	waiters := c.waiters.drain()
	c.bus.clear()
	c.mu.Unlock()

	for _, w := range waiters {
		w.timer.Stop()
		if w.resolve(Result{}, ErrClosed) {
			c.waitsCancelled.Add(1)
		}
	}

	c.logger.Info("correlator shut down",
		logger.Component("correlation"),
		logger.Count("waiters_released", len(waiters)))
}

// Stats returns counters and sizes.
func (c *Correlator) Stats() Stats {
	c.mu.Lock()
	st := Stats{
		StoredResults:   c.store.len(),
		PendingCommands: c.pending.len(),
		ActiveWaiters:   c.waiters.len(),
		Subscribers:     c.bus.len(),
		Closed:          c.closed,
	}
	c.mu.Unlock()

	st.ResultsAdded = c.resultsAdded.Load()
	st.ResultsReplaced = c.resultsReplaced.Load()
	st.WaitsResolved = c.waitsResolved.Load()
	st.WaitsTimedOut = c.waitsTimedOut.Load()
	st.WaitsCancelled = c.waitsCancelled.Load()
	st.ResultsEvicted = c.resultsEvicted.Load()
	st.PendingEvicted = c.pendingEvicted.Load()
	st.Notifications = c.notifications.Load()
	st.SubscriberPanics = c.subscriberPanics.Load()
	st.IsRunning = c.running.Load()

	return st
}

// Healthcheck reports an error when the correlator is shut down or when
// eviction is configured but the janitor is not running.
func (c *Correlator) Healthcheck(ctx context.Context) error {
	st := c.Stats()
	if st.Closed {
		return ErrClosed
	}
	if c.evictInterval > 0 && !st.IsRunning {
		return ErrJanitorNotRunning
	}
	return nil
}
