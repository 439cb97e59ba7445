package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildStandalone compiles cmd/r6lens and copies the binary out of the module
// tree, so nothing it does can lean on repo-relative files.
func buildStandalone(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary test is unix-focused")
	}

	goMod, err := exec.Command("go", "env", "GOMOD").Output()
	require.NoError(t, err)
	repoRoot := filepath.Dir(strings.TrimSpace(string(goMod)))
	require.NotEqual(t, ".", repoRoot, "go env GOMOD returned empty")

	built := filepath.Join(t.TempDir(), "r6lens")
	build := exec.Command("go", "build", "-o", built, "./cmd/r6lens")
	build.Dir = repoRoot
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build:\n%s", out)

	data, err := os.ReadFile(built)
	require.NoError(t, err)
	standalone := filepath.Join(t.TempDir(), "r6lens")
	require.NoError(t, os.WriteFile(standalone, data, 0o755))
	return standalone
}

func runStandalone(t *testing.T, binary string, env []string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir(), "XDG_DATA_HOME="+t.TempDir())
	cmd.Env = append(cmd.Env, env...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestStandaloneBinary(t *testing.T) {
	binary := buildStandalone(t)

	t.Run("version and help", func(t *testing.T) {
		out, err := runStandalone(t, binary, nil, "version")
		require.NoError(t, err, out)
		assert.Contains(t, out, "r6lens")

		out, err = runStandalone(t, binary, nil, "--help")
		require.NoError(t, err, out)
		assert.Contains(t, out, "leaderboard")
	})

	t.Run("quota snapshot needs no token", func(t *testing.T) {
		out, err := runStandalone(t, binary, nil, "ratelimit", "--output", "json", "--rate-limit", "3")
		require.NoError(t, err, out)
		assert.Contains(t, out, `"limit": 3`)
	})

	t.Run("stats without token exits with config error", func(t *testing.T) {
		out, err := runStandalone(t, binary, []string{"R6LENS_API_TOKEN="}, "stats", "generic", "KingGeorge")
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr, out)
		assert.NotZero(t, exitErr.ExitCode())
	})

	t.Run("leaderboard against a local upstream", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/leaderboard/pc/emea", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"username":"Beaulo","platform":"pc","position":1,"score":9001,"stats":{"level":400,"kd":1.9,"wl":0.7}}]`))
		}))
		defer upstream.Close()

		outPath := filepath.Join(t.TempDir(), "board.json")
		out, err := runStandalone(t, binary,
			[]string{"R6LENS_API_TOKEN=secret", "R6LENS_API_BASE_URL=" + upstream.URL},
			"leaderboard", "--region", "emea", "--output", "json", "--out", outPath)
		require.NoError(t, err, out)

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		var players []map[string]any
		require.NoError(t, json.Unmarshal(data, &players))
		require.Len(t, players, 1)
		assert.Equal(t, "Beaulo", players[0]["username"])
	})
}
