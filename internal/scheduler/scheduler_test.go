package scheduler

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	s, err := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	s.Start()
	t.Cleanup(func() {
		_ = s.Stop()
	})

	return s
}

func TestScheduler_After(t *testing.T) {
	t.Run("Tiny delays still run", func(t *testing.T) {
		s := newTestScheduler(t)

		for _, delay := range []time.Duration{time.Nanosecond, time.Microsecond, time.Millisecond} {
			var calls atomic.Int32

			// When: the start time would already be past when gocron checks it
			_, err := s.After(delay, func() { calls.Add(1) })

			// Then: the task is accepted and runs
			require.NoError(t, err, delay.String())
			require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond, delay.String())
		}
	})

	t.Run("Task runs once after the delay", func(t *testing.T) {
		s := newTestScheduler(t)

		var calls atomic.Int32

		// When: a task is scheduled
		_, err := s.After(20*time.Millisecond, func() { calls.Add(1) })
		require.NoError(t, err)

		// Then: it eventually runs exactly once
		require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Zero delay runs immediately", func(t *testing.T) {
		s := newTestScheduler(t)

		done := make(chan struct{})
		_, err := s.After(0, func() { close(done) })
		require.NoError(t, err)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	})

	t.Run("Cancelled task never runs", func(t *testing.T) {
		s := newTestScheduler(t)

		var calls atomic.Int32

		// Given: a task far enough in the future
		cancel, err := s.After(300*time.Millisecond, func() { calls.Add(1) })
		require.NoError(t, err)

		// When: it is cancelled before firing
		cancel()

		// Then: it does not run and cancelling again is harmless
		time.Sleep(500 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())
		cancel()
	})
}
