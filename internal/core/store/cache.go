package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CacheEntry describes one cached response without its body.
type CacheEntry struct {
	URL       string    `json:"url"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// CacheQuery selects cache rows for listing or purging.
type CacheQuery struct {
	All         bool
	URL         string
	Prefix      string
	ExpiredOnly bool
}

func (q CacheQuery) Validate() error {
	if q.All || q.ExpiredOnly {
		return nil
	}
	if strings.TrimSpace(q.URL) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --expired, --url, or --prefix")
}

func (q CacheQuery) whereClause(now time.Time) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var (
		clauses []string
		args    []any
	)
	if q.ExpiredOnly {
		clauses = append(clauses, "expires_at <= ?")
		args = append(args, now.Unix())
	}
	if !q.All {
		if url := strings.TrimSpace(q.URL); url != "" {
			clauses = append(clauses, "url = ?")
			args = append(args, url)
		} else if prefix := strings.TrimSpace(q.Prefix); prefix != "" {
			clauses = append(clauses, "url LIKE ?")
			args = append(args, prefix+"%")
		}
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// GetCachedPayload returns a cached response body if it is still valid. A miss
// returns nil, nil.
func (s *Store) GetCachedPayload(ctx context.Context, url string) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.TrimSpace(url)
	if key == "" {
		return nil, errors.New("cache url is required")
	}

	var payload []byte
	row := s.DB.QueryRowContext(ctx, `
		SELECT payload
		FROM payload_cache
		WHERE url = ? AND expires_at > ?
	`, key, s.now().Unix())

	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached payload: %w", err)
	}

	return payload, nil
}

// SetCachedPayload stores a response body with a TTL. A non-positive TTL is a
// no-op.
func (s *Store) SetCachedPayload(ctx context.Context, url string, payload []byte, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 || payload == nil {
		return nil
	}

	key := strings.TrimSpace(url)
	if key == "" {
		return errors.New("cache url is required")
	}

	now := s.now()
	expires := now.Add(ttl)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO payload_cache (url, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`, key, payload, now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached payload: %w", err)
	}

	return nil
}

// ListCachedPayloads returns metadata for the rows matching q, ordered by URL.
func (s *Store) ListCachedPayloads(ctx context.Context, q CacheQuery) ([]CacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause(s.now())
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT url, length(payload), fetched_at, expires_at
		FROM payload_cache
		%s
		ORDER BY url
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list cached payloads: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []CacheEntry{}
	for rows.Next() {
		var (
			entry     CacheEntry
			fetchedAt int64
			expiresAt int64
		)
		if err := rows.Scan(&entry.URL, &entry.Size, &fetchedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cached payload: %w", err)
		}
		entry.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached payloads: %w", err)
	}

	return entries, nil
}

// PurgeCachedPayloads deletes the rows matching q and returns how many were
// removed.
func (s *Store) PurgeCachedPayloads(ctx context.Context, q CacheQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause(s.now())
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, "DELETE FROM payload_cache "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("purge cached payloads: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge cached payloads: %w", err)
	}
	return removed, nil
}

// PurgeExpired removes every row past its TTL.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	return s.PurgeCachedPayloads(ctx, CacheQuery{ExpiredOnly: true})
}
