//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r6lens/r6lens/internal/config"
)

func openCacheStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	s, err := Open(context.Background(), config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/r6lens.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	return s, &now
}

func TestPayloadCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, now := openCacheStore(t)

	const url = "https://api2.r6stats.com/public-api/stats/alpha/pc/generic"

	got, err := s.GetCachedPayload(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil payload")

	require.NoError(t, s.SetCachedPayload(ctx, url, []byte(`{"username":"alpha"}`), time.Minute))

	got, err = s.GetCachedPayload(ctx, url)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alpha"}`, string(got))

	*now = now.Add(2 * time.Minute)
	got, err = s.GetCachedPayload(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got, "expired rows are not served")
}

func TestPayloadCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	s, _ := openCacheStore(t)

	const url = "https://example.test/leaderboard/pc/all"
	require.NoError(t, s.SetCachedPayload(ctx, url, []byte(`[1]`), time.Minute))
	require.NoError(t, s.SetCachedPayload(ctx, url, []byte(`[1,2]`), time.Minute))

	got, err := s.GetCachedPayload(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))
}

func TestPayloadCacheZeroTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := openCacheStore(t)

	require.NoError(t, s.SetCachedPayload(ctx, "https://example.test/x", []byte(`{}`), 0))

	entries, err := s.ListCachedPayloads(ctx, CacheQuery{All: true})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListAndPurgeCachedPayloads(t *testing.T) {
	ctx := context.Background()
	s, now := openCacheStore(t)

	require.NoError(t, s.SetCachedPayload(ctx, "https://example.test/stats/a/pc/generic", []byte(`{}`), time.Minute))
	require.NoError(t, s.SetCachedPayload(ctx, "https://example.test/stats/b/pc/generic", []byte(`{"k":1}`), time.Hour))
	require.NoError(t, s.SetCachedPayload(ctx, "https://example.test/leaderboard/pc/all", []byte(`[]`), time.Hour))

	entries, err := s.ListCachedPayloads(ctx, CacheQuery{Prefix: "https://example.test/stats/"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.test/stats/a/pc/generic", entries[0].URL)
	assert.Equal(t, 2, entries[0].Size)
	assert.Equal(t, 7, entries[1].Size)

	*now = now.Add(5 * time.Minute)

	expired, err := s.ListCachedPayloads(ctx, CacheQuery{ExpiredOnly: true})
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.True(t, expired[0].Expired(*now))

	removed, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = s.PurgeCachedPayloads(ctx, CacheQuery{URL: "https://example.test/leaderboard/pc/all"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	entries, err = s.ListCachedPayloads(ctx, CacheQuery{All: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.test/stats/b/pc/generic", entries[0].URL)
}
