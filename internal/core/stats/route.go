package stats

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/r6lens/r6lens/internal/core"
)

// ErrUsernameMalformed is returned for usernames that cannot be placed in a
// request path.
var ErrUsernameMalformed = errors.New("username malformed")

// Kind selects one of the stats endpoints.
type Kind string

const (
	KindGeneric          Kind = "generic"
	KindSeasonal         Kind = "seasonal"
	KindOperators        Kind = "operators"
	KindWeaponCategories Kind = "weapon-categories"
	KindWeapons          Kind = "weapons"
)

// Kinds lists every stats kind in display order.
var Kinds = []Kind{KindGeneric, KindSeasonal, KindOperators, KindWeaponCategories, KindWeapons}

// ParseKind accepts the API value or its underscore spelling.
func ParseKind(value string) (Kind, error) {
	normalized := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-"))
	for _, kind := range Kinds {
		if normalized == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unsupported stats kind: %q", value)
}

// String returns the value used in API paths.
func (k Kind) String() string {
	return string(k)
}

// CheckUsername rejects usernames that are empty or contain a path separator.
func CheckUsername(username string) error {
	if strings.TrimSpace(username) == "" || strings.Contains(username, "/") {
		return ErrUsernameMalformed
	}
	return nil
}

// Route builds the absolute address of a stats endpoint:
// {baseURL}/stats/{username}/{platform}/{kind}.
func Route(baseURL, username string, platform core.Platform, kind Kind) (string, error) {
	if err := CheckUsername(username); err != nil {
		return "", core.NewAddressError("", fmt.Errorf("%w: %q", err, username))
	}
	return fmt.Sprintf("%s/stats/%s/%s/%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(username),
		platform,
		kind,
	), nil
}
