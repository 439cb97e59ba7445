package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/r6lens/r6lens/internal/core/client"
	apperrors "github.com/r6lens/r6lens/internal/errors"
)

// GovernorCheck fails once the client's governor handles have been released.
func GovernorCheck(c *client.Client) HealthChecker {
	return HealthCheckerFunc(func(ctx context.Context) error {
		if _, err := c.RateLimit(); err != nil {
			return fmt.Errorf("rate governor: %w", err)
		}
		return nil
	})
}

// StoreCheck pings the payload cache database.
func StoreCheck(db *sql.DB) HealthChecker {
	return HealthCheckerFunc(func(ctx context.Context) error {
		if db == nil {
			return fmt.Errorf("payload cache: not configured")
		}
		if err := db.PingContext(ctx); err != nil {
			return apperrors.WrapDatabaseError(ctx, err, "payload cache unreachable")
		}
		return nil
	})
}
