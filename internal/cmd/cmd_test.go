package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/r6lens/r6lens/internal/config"
	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/stats"
	"github.com/r6lens/r6lens/internal/core/transport"
	"github.com/r6lens/r6lens/internal/output"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	config.SetConfigFile("")
	t.Cleanup(func() { config.SetConfigFile("") })
}

func TestResolveUsernames(t *testing.T) {
	usernames, err := resolveUsernames([]string{"KingGeorge", " kinggeorge ", "Beaulo"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"KingGeorge", "Beaulo"}, usernames)

	path := filepath.Join(t.TempDir(), "players.txt")
	require.NoError(t, os.WriteFile(path, []byte("# squad\nPengu\n\nBeaulo\n"), 0o600))

	usernames, err = resolveUsernames([]string{"Beaulo", "Shaiiko"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pengu", "Beaulo", "Shaiiko"}, usernames)

	_, err = resolveUsernames([]string{"bad/name"}, "")
	require.ErrorIs(t, err, stats.ErrUsernameMalformed)

	_, err = resolveUsernames(nil, "")
	require.Error(t, err)
}

func TestClientFlagsOverrides(t *testing.T) {
	flags := clientFlags{limit: -1}
	assert.Empty(t, flags.overrides())

	flags = clientFlags{limit: 0, interval: "10s", policy: "fail_fast", noCache: true}
	overrides := flags.overrides()
	assert.Equal(t, map[string]any{"limit": 0, "interval": "10s", "policy": "fail_fast"}, overrides["rate_limit"])
	assert.Equal(t, map[string]any{"enabled": false}, overrides["cache"])
}

type fakeFetcher struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	failures    map[string]error
}

func (f *fakeFetcher) Get(ctx context.Context, kind stats.Kind, username string, platform core.Platform) (any, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if err, ok := f.failures[username]; ok {
		return nil, err
	}
	return &stats.GenericStats{Profile: stats.Profile{Username: username, Platform: platform.String()}}, nil
}

func TestFetchStats(t *testing.T) {
	fetcher := &fakeFetcher{failures: map[string]error{
		"ghost": core.NewUnsuccessfulResponse("http://api/stats/ghost/pc/generic", http.StatusNotFound),
	}}
	usernames := []string{"a", "b", "ghost", "c", "d", "e"}

	lookups := fetchStats(context.Background(), fetcher, stats.KindGeneric, core.PlatformPC, usernames, 2)
	require.Len(t, lookups, len(usernames))
	assert.LessOrEqual(t, fetcher.maxInFlight.Load(), int32(2))

	for i, lookup := range lookups {
		assert.Equal(t, usernames[i], lookup.Username)
		assert.Equal(t, stats.KindGeneric, lookup.Kind)
	}
	assert.Contains(t, lookups[2].Error, "404")
	assert.Nil(t, lookups[2].Data)
	assert.NotNil(t, lookups[0].Data)

	err := lookupFailure(lookups)
	require.EqualError(t, err, "1 of 6 lookups failed: ghost")
	require.NoError(t, lookupFailure(lookups[:2]))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(fmt.Errorf("build client: %w", transport.ErrMissingToken)))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(core.NewRateLimited("http://api", time.Second)))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(core.NewTransportError("http://api", errors.New("refused"))))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(core.NewAddressError("::", errors.New("bad"))))
	assert.Equal(t, foundry.ExitFileNotFound, ExitCodeFor(fmt.Errorf("open: %w", os.ErrNotExist)))
	assert.Equal(t, foundry.ExitFailure, ExitCodeFor(errors.New("boom")))
}

func TestBuildInitConfigIsLoadable(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(buildInitConfig("secret")), 0o600))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(buildInitConfig("")), &raw))
	assert.Contains(t, raw, "rate_limit")

	config.SetConfigFile(path)
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 60, cfg.RateLimit.Limit)
	assert.Equal(t, "blocking", cfg.RateLimit.Policy)
}

func TestDrawSnapshotBox(t *testing.T) {
	box := drawSnapshotBox(engine.Snapshot{Limit: 60, Remaining: 60, Interval: time.Minute, Expired: true, Policy: "blocking"})
	assert.Contains(t, box, "Request Quota")
	assert.Contains(t, box, "60 per 1m0s")
	assert.Contains(t, box, "window expired")
}

func TestOutputHelpers(t *testing.T) {
	assert.Equal(t, "json", outputExtension(output.FormatJSON))
	assert.Equal(t, "yaml", outputExtension(output.FormatYAML))
	assert.Equal(t, "md", outputExtension(output.FormatMarkdown))
	assert.Equal(t, "txt", outputExtension(output.FormatTable))
	assert.Equal(t, "stats.generic.pc", sanitizeFilename("Stats.Generic.PC"))
	assert.Equal(t, "output", sanitizeFilename("///"))
}

var executeMu sync.Mutex

func execute(t *testing.T, args ...string) error {
	t.Helper()
	executeMu.Lock()
	defer executeMu.Unlock()

	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestStatsCommand(t *testing.T) {
	isolateConfig(t)

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if strings.Contains(r.URL.Path, "/ghost/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"KingGeorge","platform":"pc","progression":{"level":312},"stats":{"general":{"kills":10,"deaths":5,"kd":2}}}`))
	}))
	defer srv.Close()

	t.Setenv("R6LENS_API_TOKEN", "secret")
	t.Setenv("R6LENS_API_BASE_URL", srv.URL)

	outPath := filepath.Join(t.TempDir(), "stats.json")
	err := execute(t, "stats", "generic", "KingGeorge", "ghost", "--platform", "uplay", "-o", "json", "--out", outPath, "--rate-limit", "5", "--rate-policy", "fail_fast")
	require.EqualError(t, err, "1 of 2 lookups failed: ghost")
	assert.Equal(t, int32(2), requests.Load())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var lookups []map[string]any
	require.NoError(t, json.Unmarshal(data, &lookups))
	require.Len(t, lookups, 2)
	assert.Equal(t, "KingGeorge", lookups[0]["username"])
	assert.Equal(t, "pc", lookups[0]["platform"])
	assert.Contains(t, string(data), `"kills": 10`)
	assert.Contains(t, lookups[1]["error"], "404")
}

func TestRateLimitCommand(t *testing.T) {
	isolateConfig(t)

	outPath := filepath.Join(t.TempDir(), "ratelimit.json")
	require.NoError(t, execute(t, "ratelimit", "-o", "json", "--out", outPath, "--rate-limit", "7", "--rate-interval", "30s", "--rate-policy", "fail-fast"))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.EqualValues(t, 7, snap["limit"])
	assert.EqualValues(t, 7, snap["remaining"])
	assert.Equal(t, true, snap["expired"])
	assert.Equal(t, "fail_fast", snap["policy"])
	assert.NotContains(t, snap, "reset_at")
}
