package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/r6lens/r6lens/internal/core/stats"
)

// resolveUsernames merges positional usernames and --usernames-file into one
// de-duplicated list in input order.
func resolveUsernames(positional []string, usernamesFile string) ([]string, error) {
	var raw []string
	if trimmed := strings.TrimSpace(usernamesFile); trimmed != "" {
		fromFile, err := readUsernamesFile(trimmed)
		if err != nil {
			return nil, err
		}
		raw = append(raw, fromFile...)
	}
	raw = append(raw, positional...)

	seen := make(map[string]struct{}, len(raw))
	usernames := make([]string, 0, len(raw))
	for _, value := range raw {
		username := strings.TrimSpace(value)
		if username == "" {
			continue
		}
		if err := stats.CheckUsername(username); err != nil {
			return nil, fmt.Errorf("%q: %w", username, err)
		}
		key := strings.ToLower(username)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		usernames = append(usernames, username)
	}
	if len(usernames) == 0 {
		return nil, fmt.Errorf("at least one username is required")
	}
	return usernames, nil
}

func readUsernamesFile(path string) ([]string, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close() // nolint:errcheck
		reader = file
	}

	usernames := make([]string, 0)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		usernames = append(usernames, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return usernames, nil
}
