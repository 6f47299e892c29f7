package outbox_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pluginbridge/core/correlation"
	"github.com/dmitrymomot/pluginbridge/core/outbox"
)

func cmd(id string) correlation.Command {
	return correlation.Command{ID: id, Type: "create-frame"}
}

func TestOutbox_PushAndNext(t *testing.T) {
	t.Parallel()

	t.Run("delivers in fifo order", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, ob.Push(cmd(id)))
		}

		var got []string
		for range 3 {
			c, ok := ob.Next(context.Background(), 0)
			require.True(t, ok)
			got = append(got, c.ID)
		}
		assert.Equal(t, []string{"a", "b", "c"}, got)

		_, ok := ob.TryNext()
		assert.False(t, ok)
	})

	t.Run("sets created at", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		require.NoError(t, ob.Push(cmd("a")))
		c, ok := ob.TryNext()
		require.True(t, ok)
		assert.False(t, c.CreatedAt.IsZero())
	})

	t.Run("rejects invalid commands", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		assert.ErrorIs(t, ob.Push(correlation.Command{Type: "x"}), outbox.ErrEmptyCommandID)
		assert.ErrorIs(t, ob.Push(correlation.Command{ID: "x"}), outbox.ErrEmptyCommandType)
		assert.Zero(t, ob.Len())
	})

	t.Run("rejects when full", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New(outbox.WithCapacity(2))

		require.NoError(t, ob.Push(cmd("a")))
		require.NoError(t, ob.Push(cmd("b")))
		assert.ErrorIs(t, ob.Push(cmd("c")), outbox.ErrQueueFull)
		assert.ErrorIs(t, ob.Healthcheck(context.Background()), outbox.ErrQueueFull)

		st := ob.Stats()
		assert.Equal(t, 2, st.Queued)
		assert.Equal(t, int64(1), st.Rejected)
	})

	t.Run("config sets capacity", func(t *testing.T) {
		t.Parallel()
		ob := outbox.NewFromConfig(outbox.Config{Capacity: 1})

		require.NoError(t, ob.Push(cmd("a")))
		assert.ErrorIs(t, ob.Push(cmd("b")), outbox.ErrQueueFull)
	})
}

func TestOutbox_LongPoll(t *testing.T) {
	t.Parallel()

	t.Run("waits for a push", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = ob.Push(cmd("late"))
		}()

		c, ok := ob.Next(context.Background(), 5*time.Second)
		require.True(t, ok)
		assert.Equal(t, "late", c.ID)
	})

	t.Run("times out when empty", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		start := time.Now()
		_, ok := ob.Next(context.Background(), 50*time.Millisecond)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("returns on context cancel", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, ok := ob.Next(ctx, time.Minute)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("each command is delivered at most once", func(t *testing.T) {
		t.Parallel()
		ob := outbox.New()

		const pollers = 8
		const commands = 40

		var mu sync.Mutex
		seen := map[string]int{}
		var wg sync.WaitGroup
		for range pollers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					c, ok := ob.Next(context.Background(), 200*time.Millisecond)
					if !ok {
						return
					}
					mu.Lock()
					seen[c.ID]++
					mu.Unlock()
				}
			}()
		}

		for i := range commands {
			require.NoError(t, ob.Push(cmd(fmt.Sprintf("c%d", i))))
		}
		wg.Wait()

		assert.Len(t, seen, commands)
		for id, n := range seen {
			assert.Equal(t, 1, n, id)
		}
		assert.Equal(t, int64(commands), ob.Stats().Delivered)
	})
}

func TestOutbox_ListAndRemove(t *testing.T) {
	t.Parallel()
	ob := outbox.New()

	require.NoError(t, ob.Push(cmd("a")))
	require.NoError(t, ob.Push(cmd("b")))
	require.NoError(t, ob.Push(cmd("c")))

	assert.True(t, ob.Remove("b"))
	assert.False(t, ob.Remove("b"))

	list := ob.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)

	list[0].ID = "mutated"
	c, ok := ob.TryNext()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)
	assert.Equal(t, int64(1), ob.Stats().Removed)
}
