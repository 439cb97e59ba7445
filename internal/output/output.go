// Package output renders stats lookups, leaderboards and quota snapshots for
// the CLI.
package output

import (
	"fmt"
	"strings"

	"github.com/r6lens/r6lens/internal/core"
	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
	"github.com/r6lens/r6lens/internal/core/stats"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Lookup is the outcome of one player stats request. Exactly one of Data and
// Error is set.
type Lookup struct {
	Username string        `json:"username" yaml:"username"`
	Platform core.Platform `json:"platform" yaml:"platform"`
	Kind     stats.Kind    `json:"kind" yaml:"kind"`
	Data     any           `json:"data,omitempty" yaml:"data,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Formatter renders r6lens results.
type Formatter interface {
	FormatLookups(lookups []Lookup) (string, error)
	FormatLeaderboard(board *leaderboard.Leaderboard) (string, error)
	FormatRateLimit(snap engine.Snapshot) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(value)); normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &TableFormatter{Markdown: true}
	default:
		return &TableFormatter{}
	}
}
