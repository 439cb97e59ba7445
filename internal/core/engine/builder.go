package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
)

const (
	// DefaultRateLimit is the account-wide request quota per window.
	DefaultRateLimit = 60
	// DefaultInterval is the window length.
	DefaultInterval = 60 * time.Second
)

// Policy selects what happens when the quota of the current window is used up.
type Policy int

const (
	// PolicyBlocking delays the caller until the window resets. This is the default.
	PolicyBlocking Policy = iota
	// PolicyFailFast returns a rate-limited error carrying the remaining wait.
	PolicyFailFast
)

// ParsePolicy normalizes a policy name ("blocking", "fail_fast").
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "blocking", "block", "wait":
		return PolicyBlocking, nil
	case "fail_fast", "fail-fast", "failfast", "reject":
		return PolicyFailFast, nil
	default:
		return PolicyBlocking, fmt.Errorf("unsupported rate limit policy: %q", value)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyFailFast:
		return "fail_fast"
	default:
		return "blocking"
	}
}

// RateLimitBuilder configures a Governor. Unset fields fall back to
// DefaultRateLimit, DefaultInterval and PolicyBlocking.
type RateLimitBuilder struct {
	limit    *int
	interval *time.Duration
	policy   Policy
	clock    func() time.Time
	sleep    func(context.Context, time.Duration) error
	logger   *logging.Logger
}

// NewRateLimitBuilder returns a builder with every field unset.
func NewRateLimitBuilder() *RateLimitBuilder {
	return &RateLimitBuilder{}
}

// Limit sets the number of admissions per window. Zero disables rate limiting.
// Negative values are clamped to zero.
func (b *RateLimitBuilder) Limit(limit int) *RateLimitBuilder {
	if limit < 0 {
		limit = 0
	}
	b.limit = &limit
	return b
}

// Interval sets the window length. Non-positive values are ignored.
func (b *RateLimitBuilder) Interval(interval time.Duration) *RateLimitBuilder {
	if interval > 0 {
		b.interval = &interval
	}
	return b
}

// Policy sets the exhaustion policy.
func (b *RateLimitBuilder) Policy(policy Policy) *RateLimitBuilder {
	b.policy = policy
	return b
}

// Clock overrides the time source.
func (b *RateLimitBuilder) Clock(clock func() time.Time) *RateLimitBuilder {
	b.clock = clock
	return b
}

// Sleep overrides how the blocking policy waits for a window reset.
func (b *RateLimitBuilder) Sleep(sleep func(context.Context, time.Duration) error) *RateLimitBuilder {
	b.sleep = sleep
	return b
}

// Logger attaches a logger for rollover and exhaustion events.
func (b *RateLimitBuilder) Logger(logger *logging.Logger) *RateLimitBuilder {
	b.logger = logger
	return b
}

// Build returns the configured Governor with a full, not yet started window.
func (b *RateLimitBuilder) Build() *Governor {
	if b == nil {
		b = NewRateLimitBuilder()
	}

	limit := DefaultRateLimit
	if b.limit != nil {
		limit = *b.limit
	}
	interval := DefaultInterval
	if b.interval != nil {
		interval = *b.interval
	}

	return &Governor{
		state: QuotaState{
			Limit:     limit,
			Remaining: limit,
			Interval:  interval,
		},
		policy: b.policy,
		clock:  b.clock,
		sleep:  b.sleep,
		logger: b.logger,
	}
}
