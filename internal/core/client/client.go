package client

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
	"github.com/r6lens/r6lens/internal/core/stats"
	"github.com/r6lens/r6lens/internal/core/transport"
)

// ErrClosed is returned by accessors after Close.
var ErrClosed = errors.New("client closed")

// Options carries the non-quota settings of a Client. The zero value talks to
// the public API with a default HTTP client and no cache.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Cache      transport.PayloadCache
	CacheTTL   time.Duration
	Logger     *logging.Logger
}

// Client is the entry point to the stats API. It creates the single rate
// governor for its token; the stats and leaderboard sub-clients each hold a
// cloned handle to it.
type Client struct {
	root        *transport.Transport
	stats       *stats.Client
	leaderboard *leaderboard.Client

	closeOnce sync.Once
}

// New returns a client with the default quota (60 requests per 60 seconds,
// blocking policy).
func New(token string, opts Options) (*Client, error) {
	return NewWithRateLimit(token, nil, opts)
}

// NewWithRateLimit returns a client whose quota is shaped by configure. A nil
// configure keeps the defaults. Use Limit(0) to disable the governor.
func NewWithRateLimit(token string, configure func(*engine.RateLimitBuilder) *engine.RateLimitBuilder, opts Options) (*Client, error) {
	builder := engine.NewRateLimitBuilder()
	if opts.Logger != nil {
		builder = builder.Logger(opts.Logger)
	}
	if configure != nil {
		builder = configure(builder)
	}
	return NewWithGovernor(token, builder.Build(), opts)
}

// NewWithGovernor returns a client around an existing governor. The governor
// must not be shared with another client.
func NewWithGovernor(token string, governor *engine.Governor, opts Options) (*Client, error) {
	dispatcher, err := transport.NewDispatcher(token, opts.HTTPClient, opts.UserAgent)
	if err != nil {
		return nil, err
	}

	var transportOpts []transport.Option
	if opts.Cache != nil && opts.CacheTTL > 0 {
		transportOpts = append(transportOpts, transport.WithCache(opts.Cache, opts.CacheTTL))
	}
	if opts.Logger != nil {
		transportOpts = append(transportOpts, transport.WithLogger(opts.Logger))
	}

	root, err := transport.New(dispatcher, engine.NewHandle(governor, nil), transportOpts...)
	if err != nil {
		return nil, err
	}

	statsTransport, err := root.Clone()
	if err != nil {
		root.Release()
		return nil, err
	}
	leaderboardTransport, err := root.Clone()
	if err != nil {
		statsTransport.Release()
		root.Release()
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = core.DefaultBaseURL
	}

	return &Client{
		root:        root,
		stats:       stats.NewClient(statsTransport, baseURL),
		leaderboard: leaderboard.NewClient(leaderboardTransport, baseURL),
	}, nil
}

// Stats returns the stats sub-client.
func (c *Client) Stats() *stats.Client {
	return c.stats
}

// Leaderboard returns the leaderboard sub-client.
func (c *Client) Leaderboard() *leaderboard.Client {
	return c.leaderboard
}

// RateLimit returns a read-only snapshot of the shared quota. It never starts
// a new window.
func (c *Client) RateLimit() (engine.Snapshot, error) {
	snap, err := c.root.RateLimit()
	if errors.Is(err, engine.ErrHandleReleased) {
		return engine.Snapshot{}, ErrClosed
	}
	return snap, err
}

// Close releases every handle the client owns. Sub-clients obtained earlier
// stop working. Calling Close more than once is safe.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.stats.Release()
		c.leaderboard.Release()
		c.root.Release()
	})
	return nil
}
