package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r6lens/r6lens/internal/core"
)

// fakeClock is a manually advanced clock whose Sleep advances time instead of
// blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  time.Duration
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept += d
	c.sleeps++
	return nil
}

// gatedSleeper parks every Sleep call until the test releases it, so callers
// can be interleaved at exact points.
type gatedSleeper struct {
	entered chan chan struct{}
}

func newGatedSleeper() *gatedSleeper {
	return &gatedSleeper{entered: make(chan chan struct{}, 8)}
}

func (s *gatedSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	release := make(chan struct{})
	s.entered <- release
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-release:
		return nil
	}
}

func (s *gatedSleeper) next(t *testing.T) chan struct{} {
	t.Helper()
	select {
	case release := <-s.entered:
		return release
	case <-time.After(2 * time.Second):
		t.Fatal("expected a caller to start waiting")
		return nil
	}
}

func (s *gatedSleeper) requireIdle(t *testing.T) {
	t.Helper()
	select {
	case <-s.entered:
		t.Fatal("unexpected additional wait")
	case <-time.After(50 * time.Millisecond):
	}
}

func receiveErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("PreAdmit did not return")
		return nil
	}
}

// steppedClock only moves when the test advances it. Sleep blocks until the
// clock reaches the sleeper's target.
type steppedClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	targets map[int]time.Time
	nextID  int
	done    int
}

func newSteppedClock() *steppedClock {
	c := &steppedClock{
		now:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		targets: make(map[int]time.Time),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.targets[id] = c.now.Add(d)
	c.cond.Broadcast()
	for c.now.Before(c.targets[id]) {
		c.cond.Wait()
	}
	delete(c.targets, id)
	return nil
}

// finish records one admission and returns the clock reading it happened at.
func (c *steppedClock) finish() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++
	c.cond.Broadcast()
	return c.now
}

// settle blocks until every caller is either finished or asleep with a target
// still in the future, and reports how many have finished.
func (c *steppedClock) settle(callers int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		asleep := 0
		for _, target := range c.targets {
			if c.now.Before(target) {
				asleep++
			}
		}
		if c.done+asleep == callers {
			return c.done
		}
		c.cond.Wait()
	}
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.cond.Broadcast()
}

func TestGovernorDefaults(t *testing.T) {
	g := NewGovernor()
	snap := g.Snapshot()

	require.Equal(t, 60, snap.Limit)
	require.Equal(t, 60, snap.Remaining)
	require.Equal(t, 60*time.Second, snap.Interval)
	require.True(t, snap.ResetAt.IsZero())
	require.True(t, snap.Expired)
	require.Zero(t, snap.ResetIn)
	require.Equal(t, "blocking", snap.Policy)
	require.False(t, snap.Disabled())
}

func TestGovernorBlockingWaitsForReset(t *testing.T) {
	clock := newFakeClock()
	g := NewRateLimitBuilder().
		Limit(3).
		Interval(3 * time.Second).
		Clock(clock.Now).
		Sleep(clock.Sleep).
		Build()

	ctx := context.Background()
	start := clock.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, g.PreAdmit(ctx))
		require.Equal(t, 3-i-1, g.Snapshot().Remaining)
	}
	resetAt := g.Snapshot().ResetAt
	require.Equal(t, start.Add(3*time.Second), resetAt)
	require.Zero(t, clock.sleeps)

	require.NoError(t, g.PreAdmit(ctx))
	require.GreaterOrEqual(t, clock.Now().Sub(start), 3*time.Second)
	require.Equal(t, 1, clock.sleeps)

	snap := g.Snapshot()
	require.Equal(t, 2, snap.Remaining)
	require.False(t, snap.Expired)
	require.True(t, snap.ResetAt.After(resetAt))
}

func TestGovernorBlockingRealTime(t *testing.T) {
	interval := 150 * time.Millisecond
	g := NewRateLimitBuilder().Limit(3).Interval(interval).Build()

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, g.PreAdmit(ctx))
	}
	require.Less(t, time.Since(start), interval)

	require.NoError(t, g.PreAdmit(ctx))
	require.GreaterOrEqual(t, time.Since(start), interval)
	require.Equal(t, 2, g.Snapshot().Remaining)
}

func TestGovernorDisabled(t *testing.T) {
	g := NewRateLimitBuilder().
		Limit(0).
		Sleep(func(context.Context, time.Duration) error {
			t.Fatal("disabled governor must never wait")
			return nil
		}).
		Build()

	for i := 0; i < 100; i++ {
		require.NoError(t, g.PreAdmit(context.Background()))
	}

	snap := g.Snapshot()
	require.True(t, snap.Disabled())
	require.True(t, snap.ResetAt.IsZero())
}

func TestGovernorFailFast(t *testing.T) {
	clock := newFakeClock()
	g := NewRateLimitBuilder().
		Limit(1).
		Interval(60 * time.Second).
		Policy(PolicyFailFast).
		Clock(clock.Now).
		Build()

	require.NoError(t, g.PreAdmit(context.Background()))

	clock.Advance(500 * time.Millisecond)
	err := g.PreAdmit(context.Background())
	require.Error(t, err)

	wait, ok := core.IsRateLimited(err)
	require.True(t, ok)
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, 60*time.Second)
	require.Equal(t, 59500*time.Millisecond, wait)

	reqErr, ok := core.AsRequestError(err)
	require.True(t, ok)
	require.Equal(t, core.KindRateLimited, reqErr.Kind)
	require.True(t, reqErr.Retryable())

	// The rejection is not recorded as an admission.
	require.Equal(t, 0, g.Snapshot().Remaining)

	clock.Advance(60 * time.Second)
	require.NoError(t, g.PreAdmit(context.Background()))
}

func TestGovernorCancelledWaitLeavesStateUntouched(t *testing.T) {
	g := NewRateLimitBuilder().Limit(1).Interval(time.Hour).Build()

	require.NoError(t, g.PreAdmit(context.Background()))
	before := g.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.PreAdmit(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	after := g.Snapshot()
	require.Equal(t, before.Remaining, after.Remaining)
	require.Equal(t, before.ResetAt, after.ResetAt)
}

func TestGovernorCancelledBeforeAdmission(t *testing.T) {
	g := NewRateLimitBuilder().Limit(2).Build()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, g.PreAdmit(ctx), context.Canceled)
	snap := g.Snapshot()
	require.Equal(t, 2, snap.Remaining)
	require.True(t, snap.ResetAt.IsZero())
}

func TestGovernorSnapshotDoesNotRollOver(t *testing.T) {
	clock := newFakeClock()
	g := NewRateLimitBuilder().Limit(5).Interval(time.Minute).Clock(clock.Now).Build()

	require.NoError(t, g.PreAdmit(context.Background()))
	resetAt := g.Snapshot().ResetAt

	clock.Advance(30 * time.Second)
	snap := g.Snapshot()
	require.False(t, snap.Expired)
	require.Equal(t, 30*time.Second, snap.ResetIn)

	clock.Advance(10 * time.Minute)
	snap = g.Snapshot()
	require.True(t, snap.Expired)
	require.Zero(t, snap.ResetIn)
	require.Equal(t, 4, snap.Remaining)
	require.Equal(t, resetAt, snap.ResetAt)
}

func TestGovernorConcurrentClonesNeverExceedLimit(t *testing.T) {
	clock := newFakeClock()
	g := NewRateLimitBuilder().
		Limit(10).
		Interval(time.Minute).
		Policy(PolicyFailFast).
		Clock(clock.Now).
		Build()

	root := NewHandle(g, nil)
	handles := []*Handle{root}
	for i := 0; i < 7; i++ {
		clone, err := root.Clone()
		require.NoError(t, err)
		handles = append(handles, clone)
	}

	var (
		admitted atomic.Int64
		rejected atomic.Int64
		wg       sync.WaitGroup
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(h *Handle) {
			defer wg.Done()
			err := h.PreAdmit(context.Background())
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.Is(err, ErrHandleReleased):
				t.Error("unexpected released handle")
			default:
				if _, ok := core.IsRateLimited(err); ok {
					rejected.Add(1)
				}
			}
		}(handles[i%len(handles)])
	}
	wg.Wait()

	require.Equal(t, int64(10), admitted.Load())
	require.Equal(t, int64(190), rejected.Load())
	require.Equal(t, 0, g.Snapshot().Remaining)
}

func TestGovernorConcurrentBlockingCallersSpanWindows(t *testing.T) {
	interval := 60 * time.Millisecond
	g := NewRateLimitBuilder().Limit(5).Interval(interval).Build()
	root := NewHandle(g, nil)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		h, err := root.Clone()
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer h.Release()
			assert.NoError(t, h.PreAdmit(context.Background()))
		}()
	}
	wg.Wait()

	// 20 admissions at 5 per window need at least four windows.
	require.GreaterOrEqual(t, time.Since(start), 3*interval)
	require.Equal(t, int64(1), root.Refs())
}

func TestGovernorBlockingWaiterIsNotOvertaken(t *testing.T) {
	clock := newFakeClock()
	sleeper := newGatedSleeper()
	g := NewRateLimitBuilder().
		Limit(1).
		Interval(time.Minute).
		Clock(clock.Now).
		Sleep(sleeper.Sleep).
		Build()
	ctx := context.Background()

	require.NoError(t, g.PreAdmit(ctx))

	first := make(chan error, 1)
	go func() { first <- g.PreAdmit(ctx) }()
	releaseFirst := sleeper.next(t)

	clock.Advance(time.Minute)

	// A caller arriving at the rollover queues behind the earlier waiter.
	second := make(chan error, 1)
	go func() { second <- g.PreAdmit(ctx) }()
	releaseSecond := sleeper.next(t)

	close(releaseFirst)
	require.NoError(t, receiveErr(t, first))
	sleeper.requireIdle(t)

	snap := g.Snapshot()
	assert.Equal(t, 0, snap.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), snap.ResetAt)

	clock.Advance(time.Minute)
	close(releaseSecond)
	require.NoError(t, receiveErr(t, second))
	sleeper.requireIdle(t)
}

func TestGovernorCancelledWaiterReturnsReservation(t *testing.T) {
	clock := newFakeClock()
	sleeper := newGatedSleeper()
	g := NewRateLimitBuilder().
		Limit(1).
		Interval(time.Minute).
		Clock(clock.Now).
		Sleep(sleeper.Sleep).
		Build()

	require.NoError(t, g.PreAdmit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() { abandoned <- g.PreAdmit(ctx) }()
	sleeper.next(t)
	cancel()
	require.ErrorIs(t, receiveErr(t, abandoned), context.Canceled)

	// The next window is whole again for whoever arrives first.
	clock.Advance(time.Minute)
	require.NoError(t, g.PreAdmit(context.Background()))
	sleeper.requireIdle(t)
	assert.Equal(t, 0, g.Snapshot().Remaining)
}

func TestGovernorBlockingNeverExceedsLimitPerWindow(t *testing.T) {
	const (
		limit   = 3
		callers = 10
	)
	clock := newSteppedClock()
	g := NewRateLimitBuilder().
		Limit(limit).
		Interval(time.Minute).
		Clock(clock.Now).
		Sleep(clock.Sleep).
		Build()

	var (
		mu      sync.Mutex
		windows = make(map[time.Time]int)
		wg      sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.PreAdmit(context.Background()))
			at := clock.finish()
			mu.Lock()
			windows[at]++
			mu.Unlock()
		}()
	}

	for steps := 0; clock.settle(callers) < callers; steps++ {
		require.Less(t, steps, callers, "callers stopped making progress")
		clock.Advance(time.Minute)
	}
	wg.Wait()

	require.Len(t, windows, 4)
	total := 0
	for at, admitted := range windows {
		assert.LessOrEqual(t, admitted, limit, "window at %s", at)
		total += admitted
	}
	assert.Equal(t, callers, total)
}
