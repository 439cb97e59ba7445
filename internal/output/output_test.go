package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
	"github.com/r6lens/r6lens/internal/core/stats"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("yml")
	require.NoError(t, err)
	require.Equal(t, FormatYAML, format)

	format, err = ParseFormat("md")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func sampleLookups() []Lookup {
	return []Lookup{
		{
			Username: "KingGeorge",
			Platform: core.PlatformPC,
			Kind:     stats.KindGeneric,
			Data: &stats.GenericStats{
				Profile:     stats.Profile{Username: "KingGeorge", Platform: "pc"},
				Progression: stats.Progression{Level: 312},
				Stats: stats.StatsInfo{
					General: stats.GeneralStats{Kills: 1500, Deaths: 1000, KD: 1.5, Wins: 60, Losses: 40, WL: 1.5, Playtime: 7260},
				},
			},
		},
		{
			Username: "ghost",
			Platform: core.PlatformXbox,
			Kind:     stats.KindGeneric,
			Error:    "player not found",
		},
	}
}

func TestJSONFormatLookups(t *testing.T) {
	rendered, err := NewFormatter(FormatJSON).FormatLookups(sampleLookups())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded, 2)
	require.Equal(t, "KingGeorge", decoded[0]["username"])
	require.Equal(t, "generic", decoded[0]["kind"])
	require.NotContains(t, decoded[0], "error")
	require.Equal(t, "player not found", decoded[1]["error"])
	require.NotContains(t, decoded[1], "data")
}

func TestJSONFormatEmpty(t *testing.T) {
	f := &JSONFormatter{}

	rendered, err := f.FormatLookups(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", rendered)

	rendered, err = f.FormatLeaderboard(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", rendered)
}

func TestYAMLFormatRateLimit(t *testing.T) {
	snap := engine.Snapshot{Limit: 60, Remaining: 12, Interval: time.Minute, ResetIn: 30 * time.Second, Policy: "blocking"}

	rendered, err := NewFormatter(FormatYAML).FormatRateLimit(snap)
	require.NoError(t, err)
	require.Contains(t, rendered, "limit: 60")
	require.Contains(t, rendered, "remaining: 12")
	require.Contains(t, rendered, "interval: 1m0s")
	require.Contains(t, rendered, "reset_in: 30s")
	require.Contains(t, rendered, "policy: blocking")
	require.False(t, strings.HasSuffix(rendered, "\n"))
}

func TestTableFormatLookups(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatLookups(sampleLookups())
	require.NoError(t, err)
	require.Contains(t, rendered, "KingGeorge")
	require.Contains(t, rendered, "1.50")
	require.Contains(t, rendered, "2h01m")
	require.Contains(t, rendered, "player not found")
}

func TestTableFormatOperatorsSortedByPlaytime(t *testing.T) {
	lookup := Lookup{
		Username: "KingGeorge",
		Platform: core.PlatformPC,
		Kind:     stats.KindOperators,
		Data: &stats.OperatorStats{
			Operators: []stats.OperatorInfo{
				{Name: "Sledge", Role: "attacker", Playtime: 60},
				{Name: "Ash", Role: "attacker", Playtime: 3600},
			},
		},
	}

	rendered, err := (&TableFormatter{}).FormatLookups([]Lookup{lookup})
	require.NoError(t, err)
	require.Less(t, strings.Index(rendered, "Ash"), strings.Index(rendered, "Sledge"))
}

func TestMarkdownFormatLeaderboard(t *testing.T) {
	board := &leaderboard.Leaderboard{Players: []leaderboard.Player{
		{Username: "Beaulo", Position: 1, Score: 9123.4, Stats: leaderboard.Stats{Level: 400, KD: 1.8, WL: 1.6}},
		{Username: "Pengu", Position: 2, Score: 8999, Stats: leaderboard.Stats{Level: 380, KD: 1.5, WL: 1.4}},
	}}

	rendered, err := NewFormatter(FormatMarkdown).FormatLeaderboard(board)
	require.NoError(t, err)
	require.Contains(t, rendered, "| # | Player |")
	require.Contains(t, rendered, "Beaulo")
	require.Contains(t, rendered, "9123")
	require.Less(t, strings.Index(rendered, "Beaulo"), strings.Index(rendered, "Pengu"))
}

func TestSnapshotRows(t *testing.T) {
	rows := SnapshotRows(engine.Snapshot{Policy: "blocking"})
	require.Equal(t, [2]string{"Limit", "disabled"}, rows[0])

	rows = SnapshotRows(engine.Snapshot{Limit: 5, Remaining: 5, Interval: time.Second, Expired: true, Policy: "fail_fast"})
	require.Equal(t, [2]string{"Limit", "5 per 1s"}, rows[0])
	require.Equal(t, [2]string{"Resets in", "window expired"}, rows[2])
	require.Equal(t, [2]string{"Policy", "fail_fast"}, rows[3])
}
