package correlation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/pkg/async"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCorrelator_ResultLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("pending command completes and is retrievable", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		require.NoError(t, c.MarkPending("cmd-1"))
		assert.True(t, c.HasPendingCommand("cmd-1"))
		assert.Equal(t, correlation.StatusPending, c.Status("cmd-1"))

		stored, err := c.AddResult(correlation.Result{
			CommandID: "cmd-1",
			Success:   true,
			Data:      map[string]any{"frameId": "F1"},
		})
		require.NoError(t, err)
		assert.NotZero(t, stored.Timestamp)

		got, ok := c.GetResult("cmd-1")
		require.True(t, ok)
		assert.True(t, got.Success)
		assert.Equal(t, map[string]any{"frameId": "F1"}, got.Data)
		assert.False(t, c.HasPendingCommand("cmd-1"))
		assert.Equal(t, correlation.StatusCompleted, c.Status("cmd-1"))

		start := time.Now()
		waited, ok := c.WaitForResult(context.Background(), "cmd-1", 5*time.Second)
		require.True(t, ok)
		assert.Equal(t, got, waited)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("wait on pending command without result times out", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()
		require.NoError(t, c.MarkPending("cmd-2"))

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "cmd-2", 100*time.Millisecond)
		elapsed := time.Since(start)

		assert.False(t, ok)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.True(t, c.HasPendingCommand("cmd-2"))

		st := c.Stats()
		assert.Zero(t, st.ActiveWaiters)
		assert.Equal(t, int64(1), st.WaitsTimedOut)
	})

	t.Run("wait on never submitted id times out near its deadline", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "cmd-2", 100*time.Millisecond)
		elapsed := time.Since(start)

		assert.False(t, ok)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, time.Second)
		assert.Equal(t, correlation.StatusUnknown, c.Status("cmd-2"))
	})

	t.Run("clear pending keeps stored result", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.Submit(correlation.Command{ID: "dropped", Type: "ping"})
		require.NoError(t, err)
		c.ClearPending("dropped")
		assert.Equal(t, correlation.StatusUnknown, c.Status("dropped"))

		_, err = c.Submit(correlation.Command{ID: "dropped", Type: "ping"})
		require.NoError(t, err)

		_, err = c.AddResult(correlation.Result{CommandID: "done", Success: true})
		require.NoError(t, err)
		c.ClearPending("done")
		_, ok := c.GetResult("done")
		assert.True(t, ok)
		assert.Equal(t, correlation.StatusCompleted, c.Status("done"))
	})

	t.Run("unknown id is neither pending nor completed", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, ok := c.GetResult("missing")
		assert.False(t, ok)
		assert.False(t, c.HasPendingCommand("missing"))
		assert.Equal(t, correlation.StatusUnknown, c.Status("missing"))
	})

	t.Run("result for never dispatched id is accepted", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.AddResult(correlation.Result{CommandID: "external", Success: false, Error: "boom"})
		require.NoError(t, err)

		got, ok := c.GetResult("external")
		require.True(t, ok)
		assert.Equal(t, "boom", got.Error)
		assert.False(t, c.HasPendingCommand("external"))
	})

	t.Run("empty command id is rejected", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.AddResult(correlation.Result{Success: true})
		assert.ErrorIs(t, err, correlation.ErrEmptyCommandID)
		assert.ErrorIs(t, c.MarkPending(""), correlation.ErrEmptyCommandID)
		assert.Zero(t, c.Stats().StoredResults)
	})

	t.Run("explicit timestamp is kept", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		stored, err := c.AddResult(correlation.Result{CommandID: "ts", Timestamp: 42})
		require.NoError(t, err)
		assert.Equal(t, int64(42), stored.Timestamp)
	})

	t.Run("timestamp is filled from clock", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := correlation.New(correlation.WithClock(clock.Now))

		stored, err := c.AddResult(correlation.Result{CommandID: "ts"})
		require.NoError(t, err)
		assert.Equal(t, clock.Now().UnixMilli(), stored.Timestamp)
		assert.True(t, stored.Time().Equal(clock.Now()))
	})

	t.Run("duplicate result replaces previous value", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.AddResult(correlation.Result{CommandID: "dup", Data: "first"})
		require.NoError(t, err)
		_, err = c.AddResult(correlation.Result{CommandID: "dup", Data: "second"})
		require.NoError(t, err)

		got, ok := c.GetResult("dup")
		require.True(t, ok)
		assert.Equal(t, "second", got.Data)
		assert.Equal(t, int64(1), c.Stats().ResultsReplaced)
		assert.Equal(t, 1, c.Stats().StoredResults)
	})

	t.Run("mark pending after completion keeps completed state", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.AddResult(correlation.Result{CommandID: "done"})
		require.NoError(t, err)
		require.NoError(t, c.MarkPending("done"))

		assert.False(t, c.HasPendingCommand("done"))
		assert.Equal(t, correlation.StatusCompleted, c.Status("done"))
	})
}

func TestCorrelator_Submit(t *testing.T) {
	t.Parallel()

	t.Run("allocates id when missing", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		id, err := c.Submit(correlation.Command{Type: "create-frame"})
		require.NoError(t, err)
		assert.Len(t, id, 36)
		assert.True(t, c.HasPendingCommand(id))
	})

	t.Run("uses configured generator", func(t *testing.T) {
		t.Parallel()
		n := 0
		c := correlation.New(correlation.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		}))

		id, err := c.Submit(correlation.Command{Type: "x"})
		require.NoError(t, err)
		assert.Equal(t, "gen-1", id)
	})

	t.Run("keeps caller id", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		id, err := c.Submit(correlation.Command{ID: "mine", Type: "x"})
		require.NoError(t, err)
		assert.Equal(t, "mine", id)
	})

	t.Run("rejects pending and completed ids", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.Submit(correlation.Command{ID: "a", Type: "x"})
		require.NoError(t, err)
		_, err = c.Submit(correlation.Command{ID: "a", Type: "x"})
		assert.ErrorIs(t, err, correlation.ErrDuplicateCommandID)

		_, err = c.AddResult(correlation.Result{CommandID: "b"})
		require.NoError(t, err)
		_, err = c.Submit(correlation.Command{ID: "b", Type: "x"})
		assert.ErrorIs(t, err, correlation.ErrDuplicateCommandID)
	})
}

func TestCorrelator_Wait(t *testing.T) {
	t.Parallel()

	t.Run("waiter resolves when result arrives", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()
		require.NoError(t, c.MarkPending("late"))

		go func() {
			time.Sleep(20 * time.Millisecond)
			_, _ = c.AddResult(correlation.Result{CommandID: "late", Success: true})
		}()

		got, ok := c.WaitForResult(context.Background(), "late", 5*time.Second)
		require.True(t, ok)
		assert.Equal(t, "late", got.CommandID)
		assert.True(t, got.Success)
		assert.Zero(t, c.Stats().ActiveWaiters)
	})

	t.Run("result just before deadline still reaches waiter", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()
		require.NoError(t, c.MarkPending("close-call"))

		go func() {
			time.Sleep(300 * time.Millisecond)
			_, _ = c.AddResult(correlation.Result{CommandID: "close-call", Success: true})
		}()

		start := time.Now()
		got, ok := c.WaitForResult(context.Background(), "close-call", 400*time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, "close-call", got.CommandID)
		assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
		assert.Zero(t, c.Stats().WaitsTimedOut)
	})

	t.Run("concurrent waiters all receive the same result", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		const n = 20
		var wg sync.WaitGroup
		results := make([]correlation.Result, n)
		oks := make([]bool, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], oks[i] = c.WaitForResult(context.Background(), "shared", 5*time.Second)
			}()
		}

		require.Eventually(t, func() bool {
			return c.Stats().ActiveWaiters == n
		}, time.Second, 5*time.Millisecond)

		stored, err := c.AddResult(correlation.Result{CommandID: "shared", Data: "v"})
		require.NoError(t, err)
		wg.Wait()

		for i := range n {
			assert.True(t, oks[i])
			assert.Equal(t, stored, results[i])
		}
		assert.Equal(t, int64(n), c.Stats().WaitsResolved)
	})

	t.Run("non positive timeout returns immediately", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "none", 0)
		assert.False(t, ok)
		_, ok = c.WaitForResult(context.Background(), "none", -time.Second)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
		assert.Zero(t, c.Stats().ActiveWaiters)
	})

	t.Run("timeout is clamped to max wait", func(t *testing.T) {
		t.Parallel()
		c := correlation.New(correlation.WithMaxWait(50 * time.Millisecond))

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "slow", time.Minute)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("context cancellation withdraws waiter", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool, 1)
		go func() {
			_, ok := c.WaitForResult(ctx, "gone", 5*time.Second)
			done <- ok
		}()

		require.Eventually(t, func() bool {
			return c.Stats().ActiveWaiters == 1
		}, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case ok := <-done:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("waiter was not released")
		}
		assert.Zero(t, c.Stats().ActiveWaiters)
		assert.Equal(t, int64(1), c.Stats().WaitsCancelled)
	})

	t.Run("resolved waiter ignores later duplicate", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		future, cancel := c.WaitAsync("twice", 5*time.Second)
		defer cancel()

		_, err := c.AddResult(correlation.Result{CommandID: "twice", Data: "first"})
		require.NoError(t, err)
		_, err = c.AddResult(correlation.Result{CommandID: "twice", Data: "second"})
		require.NoError(t, err)

		got, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, "first", got.Data)

		again, ok := c.WaitForResult(context.Background(), "twice", time.Second)
		require.True(t, ok)
		assert.Equal(t, "second", again.Data)
	})

	t.Run("wait async reports timeout error", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		future, _ := c.WaitAsync("never", 10*time.Millisecond)
		_, err := future.Await()
		assert.ErrorIs(t, err, async.ErrTimeout)
	})

	t.Run("cancel after resolution is a no-op", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		future, cancel := c.WaitAsync("x", time.Second)
		_, err := c.AddResult(correlation.Result{CommandID: "x"})
		require.NoError(t, err)
		cancel()

		_, err = future.Await()
		assert.NoError(t, err)
		assert.Zero(t, c.Stats().WaitsCancelled)
	})
}

func TestCorrelator_OnResult(t *testing.T) {
	t.Parallel()

	t.Run("every subscriber sees every result once in order", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		var mu sync.Mutex
		seen := map[string][]string{}
		for _, name := range []string{"a", "b"} {
			c.OnResult(func(r correlation.Result) {
				mu.Lock()
				seen[name] = append(seen[name], r.CommandID)
				mu.Unlock()
			})
		}

		for i := range 5 {
			_, err := c.AddResult(correlation.Result{CommandID: fmt.Sprintf("r%d", i)})
			require.NoError(t, err)
		}

		want := []string{"r0", "r1", "r2", "r3", "r4"}
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, want, seen["a"])
		assert.Equal(t, want, seen["b"])
	})

	t.Run("concurrent stores keep delivery order consistent", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		var mu sync.Mutex
		var first, second []string
		c.OnResult(func(r correlation.Result) {
			mu.Lock()
			first = append(first, r.CommandID)
			mu.Unlock()
		})
		c.OnResult(func(r correlation.Result) {
			mu.Lock()
			second = append(second, r.CommandID)
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.AddResult(correlation.Result{CommandID: fmt.Sprintf("c%d", i)})
			}()
		}
		wg.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, first, 50)
		assert.Equal(t, first, second)
	})

	t.Run("late subscriber does not see past results", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, err := c.AddResult(correlation.Result{CommandID: "past"})
		require.NoError(t, err)

		var got []string
		c.OnResult(func(r correlation.Result) { got = append(got, r.CommandID) })

		_, err = c.AddResult(correlation.Result{CommandID: "future"})
		require.NoError(t, err)
		assert.Equal(t, []string{"future"}, got)
	})

	t.Run("unsubscribe stops delivery and is idempotent", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		count := 0
		unsubscribe := c.OnResult(func(correlation.Result) { count++ })

		_, _ = c.AddResult(correlation.Result{CommandID: "1"})
		unsubscribe()
		unsubscribe()
		_, _ = c.AddResult(correlation.Result{CommandID: "2"})

		assert.Equal(t, 1, count)
		assert.Zero(t, c.Stats().Subscribers)
	})

	t.Run("unsubscribe from inside callback", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		count := 0
		var unsubscribe func()
		unsubscribe = c.OnResult(func(correlation.Result) {
			count++
			unsubscribe()
		})

		_, _ = c.AddResult(correlation.Result{CommandID: "1"})
		_, _ = c.AddResult(correlation.Result{CommandID: "2"})
		assert.Equal(t, 1, count)
	})

	t.Run("subscriber reads state while another result is stored", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		entered := make(chan struct{})
		release := make(chan struct{})
		var (
			seen        []string
			got         correlation.Result
			found       bool
			unsubscribe func()
		)
		unsubscribe = c.OnResult(func(r correlation.Result) {
			seen = append(seen, r.CommandID)
			if r.CommandID != "a" {
				return
			}
			close(entered)
			<-release
			got, found = c.GetResult("a")
			unsubscribe()
		})

		first := make(chan struct{})
		go func() {
			defer close(first)
			_, _ = c.AddResult(correlation.Result{CommandID: "a"})
		}()
		<-entered

		second := make(chan struct{})
		go func() {
			defer close(second)
			_, _ = c.AddResult(correlation.Result{CommandID: "b"})
		}()
		time.Sleep(20 * time.Millisecond)

		start := time.Now()
		assert.False(t, c.HasPendingCommand("unrelated"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
		close(release)

		for _, done := range []chan struct{}{first, second} {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("AddResult did not return")
			}
		}

		assert.True(t, found)
		assert.Equal(t, "a", got.CommandID)
		assert.Equal(t, []string{"a"}, seen)
		_, ok := c.GetResult("b")
		assert.True(t, ok)
	})

	t.Run("slow subscriber does not delay wait timeouts", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		entered := make(chan struct{})
		release := make(chan struct{})
		c.OnResult(func(r correlation.Result) {
			if r.CommandID == "slow" {
				close(entered)
				<-release
			}
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.AddResult(correlation.Result{CommandID: "slow"})
		}()
		<-entered
		go func() {
			defer wg.Done()
			_, _ = c.AddResult(correlation.Result{CommandID: "queued"})
		}()

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "other", 50*time.Millisecond)
		elapsed := time.Since(start)
		close(release)
		wg.Wait()

		assert.False(t, ok)
		assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
		assert.Less(t, elapsed, 500*time.Millisecond)
	})

	t.Run("panicking subscriber is isolated", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		c.OnResult(func(correlation.Result) { panic("subscriber failure") })
		var healthy []string
		c.OnResult(func(r correlation.Result) { healthy = append(healthy, r.CommandID) })

		future, cancel := c.WaitAsync("p", time.Second)
		defer cancel()

		stored, err := c.AddResult(correlation.Result{CommandID: "p", Success: true})
		require.NoError(t, err)

		got, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, stored, got)
		assert.Equal(t, []string{"p"}, healthy)
		assert.Equal(t, int64(1), c.Stats().SubscriberPanics)
	})

	t.Run("nil subscriber is ignored", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		unsubscribe := c.OnResult(nil)
		unsubscribe()
		assert.Zero(t, c.Stats().Subscribers)
	})
}

func TestCorrelator_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("old results are evicted", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := correlation.New(correlation.WithClock(clock.Now))

		_, _ = c.AddResult(correlation.Result{CommandID: "old"})
		clock.Advance(10 * time.Minute)
		_, _ = c.AddResult(correlation.Result{CommandID: "fresh"})
		clock.Advance(time.Minute)

		removed := c.EvictOlderThan(5 * time.Minute)
		assert.Equal(t, 1, removed)

		_, ok := c.GetResult("old")
		assert.False(t, ok)
		_, ok = c.GetResult("fresh")
		assert.True(t, ok)
		assert.Equal(t, int64(1), c.Stats().ResultsEvicted)
	})

	t.Run("result read right after store survives", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		_, _ = c.AddResult(correlation.Result{CommandID: "now"})
		assert.Zero(t, c.EvictOlderThan(time.Minute))
		_, ok := c.GetResult("now")
		assert.True(t, ok)
	})

	t.Run("abandoned pending entries are evicted", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := correlation.New(correlation.WithClock(clock.Now))

		require.NoError(t, c.MarkPending("abandoned"))
		clock.Advance(time.Hour)
		require.NoError(t, c.MarkPending("recent"))

		assert.Equal(t, 1, c.EvictAbandoned(30*time.Minute))
		assert.False(t, c.HasPendingCommand("abandoned"))
		assert.True(t, c.HasPendingCommand("recent"))
	})

	t.Run("pending entry with active waiter is kept", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := correlation.New(correlation.WithClock(clock.Now))

		require.NoError(t, c.MarkPending("watched"))
		_, cancel := c.WaitAsync("watched", time.Minute)
		defer cancel()
		clock.Advance(time.Hour)

		assert.Zero(t, c.EvictAbandoned(time.Minute))
		assert.True(t, c.HasPendingCommand("watched"))
	})
}

func TestCorrelator_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("shutdown releases waiters and rejects writes", func(t *testing.T) {
		t.Parallel()
		c := correlation.New()

		done := make(chan bool, 1)
		go func() {
			_, ok := c.WaitForResult(context.Background(), "stuck", time.Minute)
			done <- ok
		}()
		require.Eventually(t, func() bool {
			return c.Stats().ActiveWaiters == 1
		}, time.Second, 5*time.Millisecond)

		c.OnResult(func(correlation.Result) {})
		c.Shutdown()
		c.Shutdown()

		select {
		case ok := <-done:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("waiter not released on shutdown")
		}

		_, err := c.AddResult(correlation.Result{CommandID: "late"})
		assert.ErrorIs(t, err, correlation.ErrClosed)
		_, err = c.Submit(correlation.Command{Type: "x"})
		assert.ErrorIs(t, err, correlation.ErrClosed)

		future, _ := c.WaitAsync("any", time.Second)
		_, err = future.Await()
		assert.ErrorIs(t, err, correlation.ErrClosed)

		st := c.Stats()
		assert.True(t, st.Closed)
		assert.Zero(t, st.Subscribers)
		assert.ErrorIs(t, c.Healthcheck(context.Background()), correlation.ErrClosed)
	})

	t.Run("janitor start and stop", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		c := correlation.New(
			correlation.WithClock(clock.Now),
			correlation.WithEvictInterval(10*time.Millisecond),
			correlation.WithRetention(time.Minute),
		)

		assert.ErrorIs(t, c.Healthcheck(context.Background()), correlation.ErrJanitorNotRunning)
		assert.ErrorIs(t, c.Stop(), correlation.ErrNotStarted)

		errCh := make(chan error, 1)
		go func() { errCh <- c.Start(context.Background()) }()

		require.Eventually(t, func() bool {
			return c.Healthcheck(context.Background()) == nil
		}, time.Second, 5*time.Millisecond)

		_, _ = c.AddResult(correlation.Result{CommandID: "expiring"})
		clock.Advance(2 * time.Minute)

		require.Eventually(t, func() bool {
			_, ok := c.GetResult("expiring")
			return !ok
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, c.Stop())
		err := <-errCh
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, c.Stats().IsRunning)
	})

	t.Run("start without interval fails", func(t *testing.T) {
		t.Parallel()
		c := correlation.New(correlation.WithEvictInterval(0))

		assert.ErrorIs(t, c.Start(context.Background()), correlation.ErrEvictionDisabled)
		assert.NoError(t, c.Healthcheck(context.Background()))
	})

	t.Run("run stops and shuts down on context cancel", func(t *testing.T) {
		t.Parallel()
		c := correlation.New(correlation.WithEvictInterval(10 * time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- c.Run(ctx)() }()

		require.Eventually(t, func() bool {
			return c.Stats().IsRunning
		}, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("run did not return")
		}
		assert.True(t, c.Stats().Closed)
	})

	t.Run("run without janitor still shuts down on cancel", func(t *testing.T) {
		t.Parallel()
		c := correlation.New(correlation.WithEvictInterval(0))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- c.Run(ctx)() }()

		fut, _ := c.WaitAsync("held", time.Minute)
		cancel()

		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("run did not return")
		}
		_, err := fut.Await()
		assert.ErrorIs(t, err, correlation.ErrClosed)
	})

	t.Run("config builds correlator", func(t *testing.T) {
		t.Parallel()
		c := correlation.NewFromConfig(correlation.Config{
			Retention:     time.Minute,
			PendingTTL:    time.Minute,
			EvictInterval: 0,
			MaxWait:       20 * time.Millisecond,
		})

		start := time.Now()
		_, ok := c.WaitForResult(context.Background(), "x", time.Hour)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second)
	})
}
