package output

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
)

// YAMLFormatter renders results as YAML documents.
type YAMLFormatter struct{}

// FormatLookups renders the lookups as a YAML sequence.
func (f *YAMLFormatter) FormatLookups(lookups []Lookup) (string, error) {
	if lookups == nil {
		lookups = []Lookup{}
	}
	return marshalYAML(lookups)
}

// FormatLeaderboard renders the players as a YAML sequence.
func (f *YAMLFormatter) FormatLeaderboard(board *leaderboard.Leaderboard) (string, error) {
	players := []leaderboard.Player{}
	if board != nil && board.Players != nil {
		players = board.Players
	}
	return marshalYAML(players)
}

// FormatRateLimit renders the snapshot with durations in Go notation.
func (f *YAMLFormatter) FormatRateLimit(snap engine.Snapshot) (string, error) {
	return marshalYAML(map[string]any{
		"limit":     snap.Limit,
		"remaining": snap.Remaining,
		"interval":  snap.Interval.String(),
		"reset_in":  snap.ResetIn.String(),
		"expired":   snap.Expired,
		"policy":    snap.Policy,
	})
}

func marshalYAML(value any) (string, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}
