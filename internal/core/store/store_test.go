package store

import (
	"testing"
	"time"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./r6lens.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./r6lens.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestCacheQueryValidate(t *testing.T) {
	require.Error(t, CacheQuery{}.Validate())
	require.Error(t, CacheQuery{Prefix: "  "}.Validate())
	require.NoError(t, CacheQuery{All: true}.Validate())
	require.NoError(t, CacheQuery{ExpiredOnly: true}.Validate())
	require.NoError(t, CacheQuery{URL: "https://example.test/x"}.Validate())
	require.NoError(t, CacheQuery{Prefix: "https://example.test/"}.Validate())
}

func TestCacheQueryWhereClause(t *testing.T) {
	now := time.Unix(1000, 0)

	where, args, err := CacheQuery{All: true}.whereClause(now)
	require.NoError(t, err)
	require.Empty(t, where)
	require.Empty(t, args)

	where, args, err = CacheQuery{Prefix: "https://example.test/", ExpiredOnly: true}.whereClause(now)
	require.NoError(t, err)
	require.Equal(t, "WHERE expires_at <= ? AND url LIKE ?", where)
	require.Equal(t, []any{int64(1000), "https://example.test/%"}, args)
}
