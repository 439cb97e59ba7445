package output

import (
	"encoding/json"

	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatLookups renders the lookups as a JSON array.
func (f *JSONFormatter) FormatLookups(lookups []Lookup) (string, error) {
	if lookups == nil {
		lookups = []Lookup{}
	}
	return f.marshal(lookups)
}

// FormatLeaderboard renders the leaderboard as a JSON array of players.
func (f *JSONFormatter) FormatLeaderboard(board *leaderboard.Leaderboard) (string, error) {
	if board == nil {
		board = &leaderboard.Leaderboard{}
	}
	return f.marshal(board)
}

// FormatRateLimit renders the snapshot as a JSON object.
func (f *JSONFormatter) FormatRateLimit(snap engine.Snapshot) (string, error) {
	return f.marshal(snap)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
