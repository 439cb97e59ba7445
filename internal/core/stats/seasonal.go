package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Season is the numeric season id used by the ranked endpoints.
type Season int

const (
	SeasonHealth        Season = 6
	SeasonBloodOrchid   Season = 7
	SeasonWhiteNoise    Season = 8
	SeasonChimera       Season = 9
	SeasonParaBellum    Season = 10
	SeasonGrimSky       Season = 11
	SeasonWindBastion   Season = 12
	SeasonBurntHorizon  Season = 13
	SeasonPhantomSight  Season = 14
	SeasonEmberRise     Season = 15
	SeasonShiftingTides Season = 16
	SeasonVoidEdge      Season = 17
	SeasonSteelWave     Season = 18
	SeasonShadowLegacy  Season = 19
)

var seasonNames = map[Season]string{
	SeasonHealth:        "Health",
	SeasonBloodOrchid:   "Blood Orchid",
	SeasonWhiteNoise:    "White Noise",
	SeasonChimera:       "Chimera",
	SeasonParaBellum:    "Para Bellum",
	SeasonGrimSky:       "Grim Sky",
	SeasonWindBastion:   "Wind Bastion",
	SeasonBurntHorizon:  "Burnt Horizon",
	SeasonPhantomSight:  "Phantom Sight",
	SeasonEmberRise:     "Ember Rise",
	SeasonShiftingTides: "Shifting Tides",
	SeasonVoidEdge:      "Void Edge",
	SeasonSteelWave:     "Steel Wave",
	SeasonShadowLegacy:  "Shadow Legacy",
}

// Known reports whether the season id is in the built-in table. Newer
// seasons still decode; they only lack a display name.
func (s Season) Known() bool {
	_, ok := seasonNames[s]
	return ok
}

func (s Season) String() string {
	if name, ok := seasonNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Season %d", int(s))
}

// Slug returns the key the seasonal endpoint uses for s ("shadow_legacy").
func (s Season) Slug() string {
	name, ok := seasonNames[s]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// SeasonFromSlug resolves a seasonal map key to its id.
func SeasonFromSlug(slug string) (Season, bool) {
	for season := range seasonNames {
		if season.Slug() == slug {
			return season, true
		}
	}
	return 0, false
}

// Rank is a ranked tier as reported by the API.
type Rank int

const (
	RankUnranked Rank = iota
	RankCopperV
	RankCopperIV
	RankCopperIII
	RankCopperII
	RankCopperI
	RankBronzeV
	RankBronzeIV
	RankBronzeIII
	RankBronzeII
	RankBronzeI
	RankSilverV
	RankSilverIV
	RankSilverIII
	RankSilverII
	RankSilverI
	RankGoldIII
	RankGoldII
	RankGoldI
	RankPlatinumIII
	RankPlatinumII
	RankPlatinumI
	RankDiamond
	RankChampions
)

var roman = []string{"I", "II", "III", "IV", "V"}

// Tier returns the rank family ("Copper", "Gold", ...).
func (r Rank) Tier() string {
	switch {
	case r <= RankUnranked:
		return "Unranked"
	case r <= RankCopperI:
		return "Copper"
	case r <= RankBronzeI:
		return "Bronze"
	case r <= RankSilverI:
		return "Silver"
	case r <= RankGoldI:
		return "Gold"
	case r <= RankPlatinumI:
		return "Platinum"
	case r == RankDiamond:
		return "Diamond"
	case r == RankChampions:
		return "Champions"
	default:
		return "Unknown"
	}
}

func (r Rank) String() string {
	var division int
	switch tier := r.Tier(); tier {
	case "Copper", "Bronze", "Silver":
		division = 5 - int(r-1)%5
	case "Gold":
		division = 3 - int(r-RankGoldIII)
	case "Platinum":
		division = 3 - int(r-RankPlatinumIII)
	default:
		return tier
	}
	return r.Tier() + " " + roman[division-1]
}

// MatchResult is the outcome of the most recent ranked match.
type MatchResult int

const (
	MatchNotAvailable MatchResult = iota
	MatchWin
	MatchLoss
	MatchAbandoned
)

func (m MatchResult) String() string {
	switch m {
	case MatchWin:
		return "Win"
	case MatchLoss:
		return "Loss"
	case MatchAbandoned:
		return "Abandoned"
	default:
		return "Not Available"
	}
}

// StringFloat decodes a float the API sends as a JSON string ("-1.25"). Plain
// JSON numbers are accepted too.
type StringFloat float64

func (f *StringFloat) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(raw) == 0 {
		*f = 0
		return nil
	}
	value, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("parse float %s: %w", data, err)
	}
	*f = StringFloat(value)
	return nil
}

func (f StringFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// Float64 returns the value as a float64.
func (f StringFloat) Float64() float64 {
	return float64(f)
}

// Date is a calendar date without time of day ("2020-06-10").
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Current returns the region records of the latest season present, ordered by
// region.
func (s SeasonalStats) Current() []RegionInfo {
	var latest Season
	for _, info := range s.Seasons {
		for _, records := range info.Regions {
			for _, record := range records {
				if record.Season > latest {
					latest = record.Season
				}
			}
		}
	}

	var out []RegionInfo
	for _, info := range s.Seasons {
		for _, records := range info.Regions {
			for _, record := range records {
				if record.Season == latest {
					out = append(out, record)
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b RegionInfo) int {
		return strings.Compare(a.Region, b.Region)
	})
	return out
}
