package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/transport"
)

// Client calls the stats endpoints. It owns one governor handle; every request
// it sends is admitted against the quota shared with its parent client.
type Client struct {
	transport *transport.Transport
	baseURL   string
}

// NewClient returns a stats client that takes ownership of t.
func NewClient(t *transport.Transport, baseURL string) *Client {
	if baseURL == "" {
		baseURL = core.DefaultBaseURL
	}
	return &Client{transport: t, baseURL: baseURL}
}

// Generic returns lifetime stats for a player.
func (c *Client) Generic(ctx context.Context, username string, platform core.Platform) (*GenericStats, error) {
	var out GenericStats
	if err := c.fetch(ctx, username, platform, KindGeneric, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Seasonal returns ranked records per season and region.
func (c *Client) Seasonal(ctx context.Context, username string, platform core.Platform) (*SeasonalStats, error) {
	var out SeasonalStats
	if err := c.fetch(ctx, username, platform, KindSeasonal, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Operators returns per-operator stats.
func (c *Client) Operators(ctx context.Context, username string, platform core.Platform) (*OperatorStats, error) {
	var out OperatorStats
	if err := c.fetch(ctx, username, platform, KindOperators, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WeaponCategories returns stats grouped by weapon category.
func (c *Client) WeaponCategories(ctx context.Context, username string, platform core.Platform) (*WeaponCategoryStats, error) {
	var out WeaponCategoryStats
	if err := c.fetch(ctx, username, platform, KindWeaponCategories, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Weapons returns per-weapon stats.
func (c *Client) Weapons(ctx context.Context, username string, platform core.Platform) (*WeaponStats, error) {
	var out WeaponStats
	if err := c.fetch(ctx, username, platform, KindWeapons, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get dispatches on kind and returns the matching typed model.
func (c *Client) Get(ctx context.Context, kind Kind, username string, platform core.Platform) (any, error) {
	switch kind {
	case KindGeneric:
		return c.Generic(ctx, username, platform)
	case KindSeasonal:
		return c.Seasonal(ctx, username, platform)
	case KindOperators:
		return c.Operators(ctx, username, platform)
	case KindWeaponCategories:
		return c.WeaponCategories(ctx, username, platform)
	case KindWeapons:
		return c.Weapons(ctx, username, platform)
	default:
		return nil, fmt.Errorf("unsupported stats kind: %q", kind)
	}
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

func (c *Client) fetch(ctx context.Context, username string, platform core.Platform, kind Kind, out any) error {
	address, err := Route(c.baseURL, username, platform, kind)
	if err != nil {
		return err
	}

	body, err := c.transport.Request(ctx, address)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s stats for %s: %w", kind, username, err)
	}
	return nil
}
