package engine

import (
	"context"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/metrics"
)

// Governor enforces the account-wide request quota before requests are sent.
//
// It owns exactly one QuotaState. All mutations happen under the exclusive lock;
// Snapshot only takes the read lock and never rolls the window over.
//
// Under PolicyBlocking an exhausted caller reserves a slot in the earliest
// future window that still has room behind every earlier waiter, then sleeps.
// Windows are numbered; rolling into window w hands pending[w] slots to the
// waiters that reserved them, so a later arrival can never overtake them.
type Governor struct {
	mu     sync.RWMutex
	state  QuotaState
	policy Policy
	clock  func() time.Time
	sleep  func(context.Context, time.Duration) error
	logger *logging.Logger

	window  uint64         // sequence number of the current window
	tail    uint64         // last window holding a reservation
	pending map[uint64]int // reservations per future window
}

// Snapshot is a point-in-time, read-only view of the quota.
type Snapshot struct {
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	Interval  time.Duration `json:"interval"`
	ResetAt   time.Time     `json:"reset_at,omitzero"`
	// ResetIn is the time left in the current window. It is zero when Expired.
	ResetIn time.Duration `json:"reset_in"`
	// Expired is set when the window has ended (or never started) and the next
	// admission will start a fresh one.
	Expired bool   `json:"expired"`
	Policy  string `json:"policy"`
}

// Disabled reports whether rate limiting is turned off.
func (s Snapshot) Disabled() bool {
	return s.Limit == 0
}

// NewGovernor returns a Governor with the default quota and blocking policy.
func NewGovernor() *Governor {
	return NewRateLimitBuilder().Build()
}

// PreAdmit must be called immediately before sending a request.
//
// Under PolicyBlocking it returns nil once the request is admitted. Callers are
// admitted in the order they called PreAdmit: the slot of a waiting caller is
// fixed when it first finds the window exhausted, and the lock is never held
// while waiting. Under PolicyFailFast it returns a *core.RequestError of kind
// KindRateLimited when the window is exhausted. A cancelled ctx aborts the wait
// with ctx.Err() and returns the reserved slot, leaving the quota as if the
// caller had never asked.
func (g *Governor) PreAdmit(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	admitted, ticket, wait := g.admit()
	if admitted {
		metrics.RecordAdmission(metrics.AdmissionImmediate)
		return nil
	}

	if g.policy == PolicyFailFast {
		metrics.RecordAdmission(metrics.AdmissionRejected)
		return core.NewRateLimited("", wait)
	}

	if g.logger != nil {
		g.logger.Debug("Rate limit exhausted, waiting for reserved window",
			zap.Uint64("window", ticket),
			zap.Duration("wait", wait))
	}

	waited := time.Duration(0)
	for {
		if err := g.wait(ctx, wait); err != nil {
			g.cancelReservation(ticket)
			return err
		}
		waited += wait

		var ready bool
		if ready, wait = g.claim(ticket); ready {
			metrics.RecordAdmission(metrics.AdmissionWaited)
			metrics.RecordAdmissionWait(waited)
			return nil
		}
	}
}

// admit tries to take a slot now. When the window is exhausted it returns the
// wait until the first slot available to this caller; under PolicyBlocking that
// slot is reserved as ticket.
func (g *Governor) admit() (bool, uint64, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.queued() && g.state.Expired(now) {
		g.rollLocked(now)
	}

	// Waiters for later windows go first; fresh callers may only use the
	// current window when nobody is queued.
	if !g.queued() {
		decision := g.state.Admit(now)
		if decision.Rollover {
			g.window++
			g.logRollover()
		}
		if decision.Admitted {
			return true, 0, 0
		}
		if g.policy == PolicyFailFast {
			return false, 0, decision.Wait
		}
	}

	ticket := max(g.tail, g.window+1)
	if g.pending[ticket] >= g.state.Limit {
		ticket++
	}
	if g.pending == nil {
		g.pending = make(map[uint64]int)
	}
	g.pending[ticket]++
	g.tail = ticket
	return false, ticket, g.untilWindow(ticket, now)
}

// claim reports whether the window holding ticket has started, rolling the
// window over if it is due. Otherwise it returns how much longer to wait.
func (g *Governor) claim(ticket uint64) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.window < ticket && g.state.Expired(now) {
		g.rollLocked(now)
	}
	if g.window >= ticket {
		return true, 0
	}
	return false, g.untilWindow(ticket, now)
}

// cancelReservation gives back the slot held by an abandoned wait.
func (g *Governor) cancelReservation(ticket uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.window == ticket:
		// The window started while we were waking up; the slot was already
		// counted against it.
		g.state.Remaining++
	case g.window < ticket:
		if g.pending[ticket]--; g.pending[ticket] <= 0 {
			delete(g.pending, ticket)
		}
		for g.tail > g.window && g.pending[g.tail] == 0 {
			g.tail--
		}
	}
}

// rollLocked starts the next window, handing its reserved slots to waiters.
func (g *Governor) rollLocked(now time.Time) {
	g.window++
	taken := g.pending[g.window]
	delete(g.pending, g.window)
	g.state.Roll(now, taken)
	g.logRollover()
}

func (g *Governor) queued() bool {
	return g.tail > g.window
}

// untilWindow estimates when window ticket starts: the current reset plus one
// interval for every window in between.
func (g *Governor) untilWindow(ticket uint64, now time.Time) time.Duration {
	wait := g.state.ResetAt.Sub(now)
	if wait < 0 {
		wait = 0
	}
	if ticket > g.window+1 {
		wait += time.Duration(ticket-g.window-1) * g.state.Interval
	}
	return wait
}

func (g *Governor) logRollover() {
	if g.logger != nil {
		g.logger.Debug("Rate limit window started",
			zap.Uint64("window", g.window),
			zap.Int("limit", g.state.Limit),
			zap.Int("remaining", g.state.Remaining),
			zap.Time("reset_at", g.state.ResetAt))
	}
}

// Snapshot returns the current quota without mutating it.
func (g *Governor) Snapshot() Snapshot {
	if g == nil {
		return Snapshot{Policy: PolicyBlocking.String()}
	}

	g.mu.RLock()
	state := g.state
	policy := g.policy
	g.mu.RUnlock()

	now := g.now()
	resetIn, _ := state.ResetIn(now)
	return Snapshot{
		Limit:     state.Limit,
		Remaining: state.Remaining,
		Interval:  state.Interval,
		ResetAt:   state.ResetAt,
		ResetIn:   resetIn,
		Expired:   state.Expired(now),
		Policy:    policy.String(),
	}
}

// Policy returns the configured exhaustion policy.
func (g *Governor) Policy() Policy {
	if g == nil {
		return PolicyBlocking
	}
	return g.policy
}

func (g *Governor) wait(ctx context.Context, d time.Duration) error {
	if g.sleep != nil {
		return g.sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (g *Governor) now() time.Time {
	if g != nil && g.clock != nil {
		return g.clock()
	}
	return time.Now()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
