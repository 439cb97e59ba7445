package stats

import (
	"time"

	"github.com/r6lens/r6lens/internal/core"
)

// Profile is the player header shared by every stats payload.
type Profile struct {
	Username     string    `json:"username" yaml:"username"`
	Platform     string    `json:"platform" yaml:"platform"`
	UbisoftID    string    `json:"ubisoft_id" yaml:"ubisoft_id"`
	UplayID      *string   `json:"uplay_id,omitempty" yaml:"uplay_id,omitempty"`
	AvatarURL146 *string   `json:"avatar_url_146,omitempty" yaml:"avatar_url_146,omitempty"`
	AvatarURL256 *string   `json:"avatar_url_256,omitempty" yaml:"avatar_url_256,omitempty"`
	LastUpdated  time.Time `json:"last_updated" yaml:"last_updated"`
}

// GenericStats is the payload of the generic endpoint.
type GenericStats struct {
	Profile     `yaml:",inline"`
	Aliases     []Alias     `json:"aliases" yaml:"aliases"`
	Progression Progression `json:"progression" yaml:"progression"`
	Stats       StatsInfo   `json:"stats" yaml:"stats"`
}

type Alias struct {
	Username   string    `json:"username" yaml:"username"`
	LastSeenAt time.Time `json:"last_seen_at" yaml:"last_seen_at"`
}

type Progression struct {
	Level              int     `json:"level" yaml:"level"`
	LootboxProbability float64 `json:"lootbox_probability" yaml:"lootbox_probability"`
	TotalXP            int64   `json:"total_xp" yaml:"total_xp"`
}

type StatsInfo struct {
	General    GeneralStats            `json:"general" yaml:"general"`
	Queue      map[QueueMode]QueueInfo `json:"queue" yaml:"queue"`
	Gamemode   GamemodeInfo            `json:"gamemode" yaml:"gamemode"`
	Timestamps Timestamps              `json:"timestamps" yaml:"timestamps"`
}

// GeneralStats holds lifetime totals. DistanceTravelled is reported as a signed
// 32-bit counter upstream and may have wrapped for long-time players.
type GeneralStats struct {
	Assists                int64   `json:"assists" yaml:"assists"`
	BarricadesDeployed     int64   `json:"barricades_deployed" yaml:"barricades_deployed"`
	BlindKills             int64   `json:"blind_kills" yaml:"blind_kills"`
	BulletsFired           int64   `json:"bullets_fired" yaml:"bullets_fired"`
	BulletsHit             int64   `json:"bullets_hit" yaml:"bullets_hit"`
	DBNOs                  int64   `json:"dbnos" yaml:"dbnos"`
	Deaths                 int64   `json:"deaths" yaml:"deaths"`
	DistanceTravelled      int64   `json:"distance_travelled" yaml:"distance_travelled"`
	Draws                  int64   `json:"draws" yaml:"draws"`
	GadgetsDestroyed       int64   `json:"gadgets_destroyed" yaml:"gadgets_destroyed"`
	GamesPlayed            int64   `json:"games_played" yaml:"games_played"`
	Headshots              int64   `json:"headshots" yaml:"headshots"`
	KD                     float64 `json:"kd" yaml:"kd"`
	Kills                  int64   `json:"kills" yaml:"kills"`
	Losses                 int64   `json:"losses" yaml:"losses"`
	MeleeKills             int64   `json:"melee_kills" yaml:"melee_kills"`
	PenetrationKills       int64   `json:"penetration_kills" yaml:"penetration_kills"`
	Playtime               int64   `json:"playtime" yaml:"playtime"`
	RappelBreaches         int64   `json:"rappel_breaches" yaml:"rappel_breaches"`
	ReinforcementsDeployed int64   `json:"reinforcements_deployed" yaml:"reinforcements_deployed"`
	Revives                int64   `json:"revives" yaml:"revives"`
	Suicides               int64   `json:"suicides" yaml:"suicides"`
	Wins                   int64   `json:"wins" yaml:"wins"`
	WL                     float64 `json:"wl" yaml:"wl"`
}

// QueueMode keys the per-queue breakdown.
type QueueMode string

const (
	QueueCasual QueueMode = "casual"
	QueueRanked QueueMode = "ranked"
	QueueOther  QueueMode = "other"
)

type QueueInfo struct {
	Deaths      int64   `json:"deaths" yaml:"deaths"`
	Draws       int64   `json:"draws" yaml:"draws"`
	GamesPlayed int64   `json:"games_played" yaml:"games_played"`
	KD          float64 `json:"kd" yaml:"kd"`
	Kills       int64   `json:"kills" yaml:"kills"`
	Losses      int64   `json:"losses" yaml:"losses"`
	Playtime    int64   `json:"playtime" yaml:"playtime"`
	Wins        int64   `json:"wins" yaml:"wins"`
	WL          float64 `json:"wl" yaml:"wl"`
}

type GamemodeInfo struct {
	Bomb       BombInfo       `json:"bomb" yaml:"bomb"`
	SecureArea SecureAreaInfo `json:"secure_area" yaml:"secure_area"`
	Hostage    HostageInfo    `json:"hostage" yaml:"hostage"`
}

type BombInfo struct {
	BestScore   int64   `json:"best_score" yaml:"best_score"`
	GamesPlayed int64   `json:"games_played" yaml:"games_played"`
	Losses      int64   `json:"losses" yaml:"losses"`
	Playtime    int64   `json:"playtime" yaml:"playtime"`
	Wins        int64   `json:"wins" yaml:"wins"`
	WL          float64 `json:"wl" yaml:"wl"`
}

type SecureAreaInfo struct {
	BestScore                  int64   `json:"best_score" yaml:"best_score"`
	GamesPlayed                int64   `json:"games_played" yaml:"games_played"`
	KillsAsAttackerInObjective int64   `json:"kills_as_attacker_in_objective" yaml:"kills_as_attacker_in_objective"`
	KillsAsDefenderInObjective int64   `json:"kills_as_defender_in_objective" yaml:"kills_as_defender_in_objective"`
	Losses                     int64   `json:"losses" yaml:"losses"`
	Playtime                   int64   `json:"playtime" yaml:"playtime"`
	TimesObjectiveSecured      int64   `json:"times_objective_secured" yaml:"times_objective_secured"`
	Wins                       int64   `json:"wins" yaml:"wins"`
	WL                         float64 `json:"wl" yaml:"wl"`
}

type HostageInfo struct {
	BestScore         int64   `json:"best_score" yaml:"best_score"`
	GamesPlayed       int64   `json:"games_played" yaml:"games_played"`
	Losses            int64   `json:"losses" yaml:"losses"`
	Playtime          int64   `json:"playtime" yaml:"playtime"`
	ExtractionsDenied int64   `json:"extractions_denied" yaml:"extractions_denied"`
	Wins              int64   `json:"wins" yaml:"wins"`
	WL                float64 `json:"wl" yaml:"wl"`
}

type Timestamps struct {
	Created     time.Time `json:"created" yaml:"created"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
}

// OperatorStats is the payload of the operators endpoint.
type OperatorStats struct {
	Profile   `yaml:",inline"`
	Operators []OperatorInfo `json:"operators" yaml:"operators"`
}

type OperatorInfo struct {
	Name       string        `json:"name" yaml:"name"`
	CTU        string        `json:"ctu" yaml:"ctu"`
	Role       string        `json:"role" yaml:"role"`
	Kills      int64         `json:"kills" yaml:"kills"`
	Deaths     int64         `json:"deaths" yaml:"deaths"`
	KD         float64       `json:"kd" yaml:"kd"`
	Wins       int64         `json:"wins" yaml:"wins"`
	Losses     int64         `json:"losses" yaml:"losses"`
	WL         float64       `json:"wl" yaml:"wl"`
	Headshots  int64         `json:"headshots" yaml:"headshots"`
	DBNOs      int64         `json:"dbnos" yaml:"dbnos"`
	MeleeKills int64         `json:"melee_kills" yaml:"melee_kills"`
	Experience int64         `json:"experience" yaml:"experience"`
	Playtime   int64         `json:"playtime" yaml:"playtime"`
	Abilities  []AbilityInfo `json:"abilities,omitempty" yaml:"abilities,omitempty"`
	BadgeImage *string       `json:"badge_image,omitempty" yaml:"badge_image,omitempty"`
}

type AbilityInfo struct {
	Ability string `json:"ability" yaml:"ability"`
	Value   *int64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// WeaponCategoryStats is the payload of the weapon-categories endpoint.
type WeaponCategoryStats struct {
	Profile    `yaml:",inline"`
	Categories []WeaponCategoryInfo `json:"categories" yaml:"categories"`
}

type WeaponCategoryInfo struct {
	Category           string    `json:"category" yaml:"category"`
	Kills              int64     `json:"kills" yaml:"kills"`
	Deaths             int64     `json:"deaths" yaml:"deaths"`
	KD                 float64   `json:"kd" yaml:"kd"`
	Headshots          int64     `json:"headshots" yaml:"headshots"`
	HeadshotPercentage float64   `json:"headshot_percentage" yaml:"headshot_percentage"`
	TimesChosen        int64     `json:"times_chosen" yaml:"times_chosen"`
	BulletsFired       int64     `json:"bullets_fired" yaml:"bullets_fired"`
	BulletsHit         int64     `json:"bullets_hit" yaml:"bullets_hit"`
	Created            time.Time `json:"created" yaml:"created"`
	LastUpdated        time.Time `json:"last_updated" yaml:"last_updated"`
}

// WeaponStats is the payload of the weapons endpoint.
type WeaponStats struct {
	Profile `yaml:",inline"`
	Weapons []WeaponInfo `json:"weapons" yaml:"weapons"`
}

type WeaponInfo struct {
	Weapon             string    `json:"weapon" yaml:"weapon"`
	Category           string    `json:"category" yaml:"category"`
	Kills              int64     `json:"kills" yaml:"kills"`
	Deaths             int64     `json:"deaths" yaml:"deaths"`
	KD                 float64   `json:"kd" yaml:"kd"`
	Headshots          int64     `json:"headshots" yaml:"headshots"`
	HeadshotPercentage float64   `json:"headshot_percentage" yaml:"headshot_percentage"`
	TimesChosen        int64     `json:"times_chosen" yaml:"times_chosen"`
	BulletsFired       int64     `json:"bullets_fired" yaml:"bullets_fired"`
	BulletsHit         int64     `json:"bullets_hit" yaml:"bullets_hit"`
	Created            time.Time `json:"created" yaml:"created"`
	LastUpdated        time.Time `json:"last_updated" yaml:"last_updated"`
}

// SeasonalStats is the payload of the seasonal endpoint. Seasons are keyed by
// the API slug (for example "shadow_legacy").
type SeasonalStats struct {
	Profile `yaml:",inline"`
	Seasons map[string]SeasonInfo `json:"seasons" yaml:"seasons"`
}

type SeasonInfo struct {
	Name      string                       `json:"name" yaml:"name"`
	StartDate time.Time                    `json:"start_date" yaml:"start_date"`
	EndDate   *Date                        `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Regions   map[core.Region][]RegionInfo `json:"regions" yaml:"regions"`
}

// RegionInfo holds one player's ranked record for a season in one region.
type RegionInfo struct {
	Season                     Season       `json:"season_id" yaml:"season_id"`
	Region                     string       `json:"region" yaml:"region"`
	Abandons                   int64        `json:"abandons" yaml:"abandons"`
	Losses                     int64        `json:"losses" yaml:"losses"`
	MaxMMR                     float64      `json:"max_mmr" yaml:"max_mmr"`
	MaxRank                    Rank         `json:"max_rank" yaml:"max_rank"`
	MMR                        float64      `json:"mmr" yaml:"mmr"`
	NextRankMMR                float64      `json:"next_rank_mmr" yaml:"next_rank_mmr"`
	PrevRankMMR                float64      `json:"prev_rank_mmr" yaml:"prev_rank_mmr"`
	Rank                       Rank         `json:"rank" yaml:"rank"`
	SkillMean                  float64      `json:"skill_mean" yaml:"skill_mean"`
	SkillStandardDeviation     float64      `json:"skill_standard_deviation" yaml:"skill_standard_deviation"`
	CreatedForDate             time.Time    `json:"created_for_date" yaml:"created_for_date"`
	Wins                       int64        `json:"wins" yaml:"wins"`
	Kills                      *int64       `json:"kills,omitempty" yaml:"kills,omitempty"`
	Deaths                     *int64       `json:"deaths,omitempty" yaml:"deaths,omitempty"`
	LastMatchMMRChange         *int64       `json:"last_match_mmr_change,omitempty" yaml:"last_match_mmr_change,omitempty"`
	LastMatchSkillMeanChange   *StringFloat `json:"last_match_skill_mean_change,omitempty" yaml:"last_match_skill_mean_change,omitempty"`
	LastMatchSkillStdDevChange *StringFloat `json:"last_match_skill_standard_deviation_change,omitempty" yaml:"last_match_skill_standard_deviation_change,omitempty"`
	LastMatchResult            *MatchResult `json:"last_match_result,omitempty" yaml:"last_match_result,omitempty"`
	ChampionsRankPosition      *int64       `json:"champions_rank_position,omitempty" yaml:"champions_rank_position,omitempty"`
	RankText                   string       `json:"rank_text" yaml:"rank_text"`
	RankImage                  string       `json:"rank_image" yaml:"rank_image"`
	MaxRankText                string       `json:"max_rank_text" yaml:"max_rank_text"`
	MaxRankImage               string       `json:"max_rank_image" yaml:"max_rank_image"`
}
