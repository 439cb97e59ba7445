package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/transport"
)

// AllRegions is the path segment used when no region filter is given.
const AllRegions = "all"

// Leaderboard is the ranked top list, sorted by position ascending. The API
// returns it as a bare JSON array.
type Leaderboard struct {
	Players []Player `json:"players" yaml:"players"`
}

// UnmarshalJSON decodes the top-level array form.
func (l *Leaderboard) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &l.Players)
}

// MarshalJSON encodes the same array form the API uses.
func (l Leaderboard) MarshalJSON() ([]byte, error) {
	if l.Players == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Players)
}

// Player is one leaderboard entry.
type Player struct {
	Username     string  `json:"username" yaml:"username"`
	Platform     string  `json:"platform" yaml:"platform"`
	UbisoftID    string  `json:"ubisoft_id" yaml:"ubisoft_id"`
	UplayID      *string `json:"uplay_id,omitempty" yaml:"uplay_id,omitempty"`
	AvatarURL146 *string `json:"avatar_url_146,omitempty" yaml:"avatar_url_146,omitempty"`
	AvatarURL256 *string `json:"avatar_url_256,omitempty" yaml:"avatar_url_256,omitempty"`
	Stats        Stats   `json:"stats" yaml:"stats"`
	Score        float64 `json:"score" yaml:"score"`
	Position     int     `json:"position" yaml:"position"`
}

type Stats struct {
	Level int     `json:"level" yaml:"level"`
	KD    float64 `json:"kd" yaml:"kd"`
	WL    float64 `json:"wl" yaml:"wl"`
}

// Route builds {baseURL}/leaderboard/{platform}/{region|all}.
func Route(baseURL string, platform core.Platform, region *core.Region) string {
	segment := AllRegions
	if region != nil {
		segment = region.String()
	}
	return fmt.Sprintf("%s/leaderboard/%s/%s", strings.TrimRight(baseURL, "/"), platform, segment)
}

// Client calls the leaderboard endpoint through its own governor handle.
type Client struct {
	transport *transport.Transport
	baseURL   string
}

// NewClient returns a leaderboard client that takes ownership of t.
func NewClient(t *transport.Transport, baseURL string) *Client {
	if baseURL == "" {
		baseURL = core.DefaultBaseURL
	}
	return &Client{transport: t, baseURL: baseURL}
}

// Get returns the leaderboard for platform, optionally filtered to one region.
func (c *Client) Get(ctx context.Context, platform core.Platform, region *core.Region) (*Leaderboard, error) {
	body, err := c.transport.Request(ctx, Route(c.baseURL, platform, region))
	if err != nil {
		return nil, err
	}

	var out Leaderboard
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode %s leaderboard: %w", platform, err)
	}
	return &out, nil
}

// RateLimit returns a snapshot of the shared quota.
func (c *Client) RateLimit() (engine.Snapshot, error) {
	return c.transport.RateLimit()
}

// Release drops this client's governor handle.
func (c *Client) Release() {
	if c != nil {
		c.transport.Release()
	}
}
