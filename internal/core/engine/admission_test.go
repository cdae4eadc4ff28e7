package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestController(maxRequests int, window time.Duration, clock *time.Time) *Controller {
	return NewController(ControllerConfig{
		MaxRequests: maxRequests,
		Window:      window,
		Clock:       func() time.Time { return *clock },
	})
}

func TestControllerAdmitsUntilWindowFull(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := newTestController(5, time.Minute, &now)

	for i := 0; i < 5; i++ {
		verdict := ctrl.Check("u1")
		require.True(t, verdict.Allowed, "admission %d should pass", i+1)
		require.Equal(t, 5-(i+1), verdict.Remaining)
	}

	now = now.Add(time.Second)
	verdict := ctrl.Check("u1")
	require.False(t, verdict.Allowed)
	require.Equal(t, 59*time.Second, verdict.RetryAfter)
}

func TestControllerAdmitsAfterWindowExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := newTestController(5, time.Minute, &now)

	for i := 0; i < 5; i++ {
		require.True(t, ctrl.Check("u1").Allowed)
	}
	require.False(t, ctrl.Check("u1").Allowed)

	now = now.Add(61 * time.Second)
	verdict := ctrl.Check("u1")
	require.True(t, verdict.Allowed)
}

func TestControllerRetryAfterDecreasesTowardZero(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := newTestController(1, time.Minute, &now)

	require.True(t, ctrl.Check("u1").Allowed)

	prev := time.Minute + time.Second
	for _, elapsed := range []time.Duration{0, 15 * time.Second, 45 * time.Second, 59 * time.Second} {
		now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(elapsed)
		verdict := ctrl.Check("u1")
		require.False(t, verdict.Allowed)
		require.GreaterOrEqual(t, verdict.RetryAfter, time.Duration(0))
		require.Less(t, verdict.RetryAfter, prev)
		prev = verdict.RetryAfter
	}

	// Exactly at the window boundary the oldest admission ages out.
	now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Minute)
	require.True(t, ctrl.Check("u1").Allowed)
}

func TestControllerKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := newTestController(2, time.Minute, &now)

	require.True(t, ctrl.Check("alice").Allowed)
	require.True(t, ctrl.Check("alice").Allowed)
	require.False(t, ctrl.Check("alice").Allowed)

	require.True(t, ctrl.Check("bob").Allowed)
	require.True(t, ctrl.Check("bob").Allowed)
}

func TestControllerReset(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := newTestController(1, time.Minute, &now)

	require.True(t, ctrl.Check("u1").Allowed)
	require.False(t, ctrl.Check("u1").Allowed)

	ctrl.Reset("u1")
	require.True(t, ctrl.Check("u1").Allowed)
}

func TestControllerEvictsIdleKeysAtCap(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := NewController(ControllerConfig{
		MaxRequests: 1,
		Window:      time.Minute,
		MaxKeys:     3,
		Clock:       func() time.Time { return now },
	})

	for i := 0; i < 3; i++ {
		require.True(t, ctrl.Check(fmt.Sprintf("key-%d", i)).Allowed)
	}
	require.Equal(t, 3, ctrl.Keys())

	// All three windows age out; the new key sweeps them.
	now = now.Add(2 * time.Minute)
	require.True(t, ctrl.Check("key-3").Allowed)
	require.Equal(t, 1, ctrl.Keys())
}

func TestControllerEvictsLeastRecentKeyWhenAllActive(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctrl := NewController(ControllerConfig{
		MaxRequests: 2,
		Window:      time.Hour,
		MaxKeys:     2,
		Clock:       func() time.Time { return now },
	})

	require.True(t, ctrl.Check("old").Allowed)
	now = now.Add(time.Minute)
	require.True(t, ctrl.Check("recent").Allowed)

	now = now.Add(time.Minute)
	require.True(t, ctrl.Check("fresh").Allowed)
	require.Equal(t, 2, ctrl.Keys())

	// "old" carried the stalest admission and is gone; its budget is fresh.
	require.True(t, ctrl.Check("old").Allowed)
}

func TestControllerConcurrentChecksRespectLimit(t *testing.T) {
	ctrl := NewController(ControllerConfig{MaxRequests: 10, Window: time.Minute})

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctrl.Check("shared").Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, admitted)
}
