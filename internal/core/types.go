package core

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the public stats API root.
const DefaultBaseURL = "https://api2.r6stats.com/public-api"

// Platform identifies the gaming platform of a player.
type Platform string

const (
	PlatformPC          Platform = "pc"
	PlatformXbox        Platform = "xbox"
	PlatformPlaystation Platform = "ps4"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{PlatformPC, PlatformXbox, PlatformPlaystation}

// ParsePlatform normalizes a platform name. It accepts the API values plus a few
// common aliases ("playstation", "psn", "ps").
func ParsePlatform(value string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pc", "uplay":
		return PlatformPC, nil
	case "xbox", "xbl":
		return PlatformXbox, nil
	case "ps4", "ps", "psn", "playstation":
		return PlatformPlaystation, nil
	default:
		return "", fmt.Errorf("unsupported platform: %q", value)
	}
}

// String returns the value used in API paths.
func (p Platform) String() string {
	return string(p)
}

// Region identifies a ranked matchmaking region.
type Region string

const (
	// RegionNCSA covers US East, US West, US Central, US South Central and Brazil South.
	RegionNCSA Region = "ncsa"
	// RegionEMEA covers EU West and EU North.
	RegionEMEA Region = "emea"
	// RegionAPAC covers Asia East, Asia SouthEast and Australia East.
	RegionAPAC Region = "apac"
)

// Regions lists the supported regions in display order.
var Regions = []Region{RegionNCSA, RegionEMEA, RegionAPAC}

// ParseRegion normalizes a region name.
func ParseRegion(value string) (Region, error) {
	switch normalized := Region(strings.ToLower(strings.TrimSpace(value))); normalized {
	case RegionNCSA, RegionEMEA, RegionAPAC:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported region: %q", value)
	}
}

// String returns the value used in API paths.
func (r Region) String() string {
	return string(r)
}
