package engine

import "time"

// QuotaState is a fixed-window request counter.
//
// Limit == 0 disables the quota: every request is admitted and the state never
// changes. A zero ResetAt means no window has started yet and is treated as
// expired.
type QuotaState struct {
	Limit     int
	Remaining int
	Interval  time.Duration
	ResetAt   time.Time
}

// Decision is the outcome of a single admission attempt.
type Decision struct {
	Admitted bool
	// Rollover is set when the attempt started a fresh window.
	Rollover bool
	// Wait is the time left until the current window resets. Only set when the
	// attempt was not admitted.
	Wait time.Duration
}

// Admit applies one admission attempt arriving at now.
//
// All admissions of a window share one ResetAt. An expired window is rolled over
// exactly once and the attempt that rolls it over consumes the first slot of the
// fresh window, no matter how long ago the previous window expired.
func (q *QuotaState) Admit(now time.Time) Decision {
	if q.Limit == 0 {
		return Decision{Admitted: true}
	}

	if q.Expired(now) {
		q.Roll(now, 1)
		return Decision{Admitted: true, Rollover: true}
	}

	if q.Remaining > 0 {
		q.Remaining--
		return Decision{Admitted: true}
	}

	return Decision{Wait: q.ResetAt.Sub(now)}
}

// Roll starts a fresh window at now with taken slots already spoken for.
func (q *QuotaState) Roll(now time.Time, taken int) {
	q.ResetAt = now.Add(q.Interval)
	q.Remaining = max(q.Limit-taken, 0)
}

// ResetIn returns the time until ResetAt. ok is false once ResetAt is not in the
// future, including before the first window has started.
func (q QuotaState) ResetIn(now time.Time) (time.Duration, bool) {
	if !now.Before(q.ResetAt) {
		return 0, false
	}
	return q.ResetAt.Sub(now), true
}

// Expired reports whether the window has ended as of now. It does not roll the
// window over.
func (q QuotaState) Expired(now time.Time) bool {
	return !now.Before(q.ResetAt)
}
