package output

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/r6lens/r6lens/internal/core/engine"
	"github.com/r6lens/r6lens/internal/core/leaderboard"
	"github.com/r6lens/r6lens/internal/core/stats"
)

// TableFormatter renders results as rounded ASCII tables, or as Markdown
// tables when Markdown is set.
type TableFormatter struct {
	Markdown bool
}

// FormatLookups renders one table per lookup.
func (f *TableFormatter) FormatLookups(lookups []Lookup) (string, error) {
	rendered := make([]string, 0, len(lookups))
	for _, lookup := range lookups {
		rendered = append(rendered, f.render(lookupTable(lookup)))
	}
	return strings.Join(rendered, "\n\n"), nil
}

// FormatLeaderboard renders the players in leaderboard order.
func (f *TableFormatter) FormatLeaderboard(board *leaderboard.Leaderboard) (string, error) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Player", "Level", "K/D", "W/L", "Score"})
	if board != nil {
		for _, p := range board.Players {
			t.AppendRow(table.Row{p.Position, p.Username, p.Stats.Level, ratio(p.Stats.KD), ratio(p.Stats.WL), fmt.Sprintf("%.0f", p.Score)})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d players", len(board.Players)), "", "", "", ""})
	}
	return f.render(t), nil
}

// FormatRateLimit renders the quota snapshot as a two-column table.
func (f *TableFormatter) FormatRateLimit(snap engine.Snapshot) (string, error) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Quota", "Value"})
	for _, row := range SnapshotRows(snap) {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	return f.render(t), nil
}

// SnapshotRows describes a quota snapshot as label/value pairs.
func SnapshotRows(snap engine.Snapshot) [][2]string {
	if snap.Disabled() {
		return [][2]string{
			{"Limit", "disabled"},
			{"Policy", snap.Policy},
		}
	}

	resetIn := snap.ResetIn.Round(time.Millisecond).String()
	if snap.Expired {
		resetIn = "window expired"
	}
	return [][2]string{
		{"Limit", fmt.Sprintf("%d per %s", snap.Limit, snap.Interval)},
		{"Remaining", fmt.Sprintf("%d", snap.Remaining)},
		{"Resets in", resetIn},
		{"Policy", snap.Policy},
	}
}

func (f *TableFormatter) render(t table.Writer) string {
	if f.Markdown {
		return t.RenderMarkdown()
	}
	t.SetStyle(table.StyleRounded)
	return t.Render()
}

func lookupTable(lookup Lookup) table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s (%s) %s", lookup.Username, lookup.Platform, lookup.Kind))

	if lookup.Error != "" {
		t.AppendHeader(table.Row{"Error"})
		t.AppendRow(table.Row{lookup.Error})
		return t
	}

	switch data := lookup.Data.(type) {
	case *stats.GenericStats:
		genericRows(t, data)
	case *stats.SeasonalStats:
		seasonalRows(t, data)
	case *stats.OperatorStats:
		operatorRows(t, data)
	case *stats.WeaponCategoryStats:
		weaponCategoryRows(t, data)
	case *stats.WeaponStats:
		weaponRows(t, data)
	default:
		t.AppendHeader(table.Row{"Error"})
		t.AppendRow(table.Row{fmt.Sprintf("no table layout for %T", lookup.Data)})
	}
	return t
}

func genericRows(t table.Writer, data *stats.GenericStats) {
	general := data.Stats.General
	t.AppendHeader(table.Row{"Stat", "Value"})
	t.AppendRows([]table.Row{
		{"Level", data.Progression.Level},
		{"Playtime", playtime(general.Playtime)},
		{"Matches", general.GamesPlayed},
		{"Kills", general.Kills},
		{"Deaths", general.Deaths},
		{"K/D", ratio(general.KD)},
		{"Wins", general.Wins},
		{"Losses", general.Losses},
		{"W/L", ratio(general.WL)},
		{"Headshots", general.Headshots},
	})
	if ranked, ok := data.Stats.Queue[stats.QueueRanked]; ok {
		t.AppendRow(table.Row{"Ranked K/D", ratio(ranked.KD)})
		t.AppendRow(table.Row{"Ranked W/L", ratio(ranked.WL)})
	}
	if casual, ok := data.Stats.Queue[stats.QueueCasual]; ok {
		t.AppendRow(table.Row{"Casual K/D", ratio(casual.KD)})
	}
}

func seasonalRows(t table.Writer, data *stats.SeasonalStats) {
	t.AppendHeader(table.Row{"Region", "Season", "Rank", "MMR", "Max Rank", "Wins", "Losses", "Abandons", "Last Match"})
	for _, record := range data.Current() {
		last := stats.MatchNotAvailable
		if record.LastMatchResult != nil {
			last = *record.LastMatchResult
		}
		t.AppendRow(table.Row{
			strings.ToUpper(record.Region),
			record.Season.String(),
			record.Rank.String(),
			fmt.Sprintf("%.0f", record.MMR),
			record.MaxRank.String(),
			record.Wins,
			record.Losses,
			record.Abandons,
			last.String(),
		})
	}
}

func operatorRows(t table.Writer, data *stats.OperatorStats) {
	operators := slices.Clone(data.Operators)
	slices.SortStableFunc(operators, func(a, b stats.OperatorInfo) int {
		return cmp.Compare(b.Playtime, a.Playtime)
	})

	t.AppendHeader(table.Row{"Operator", "Role", "Kills", "Deaths", "K/D", "W/L", "Playtime"})
	for _, op := range operators {
		t.AppendRow(table.Row{op.Name, op.Role, op.Kills, op.Deaths, ratio(op.KD), ratio(op.WL), playtime(op.Playtime)})
	}
}

func weaponCategoryRows(t table.Writer, data *stats.WeaponCategoryStats) {
	t.AppendHeader(table.Row{"Category", "Kills", "Deaths", "K/D", "HS%", "Picked"})
	for _, c := range data.Categories {
		t.AppendRow(table.Row{c.Category, c.Kills, c.Deaths, ratio(c.KD), percent(c.HeadshotPercentage), c.TimesChosen})
	}
}

func weaponRows(t table.Writer, data *stats.WeaponStats) {
	weapons := slices.Clone(data.Weapons)
	slices.SortStableFunc(weapons, func(a, b stats.WeaponInfo) int {
		return cmp.Compare(b.Kills, a.Kills)
	})

	t.AppendHeader(table.Row{"Weapon", "Category", "Kills", "K/D", "HS%", "Picked"})
	for _, w := range weapons {
		t.AppendRow(table.Row{w.Weapon, w.Category, w.Kills, ratio(w.KD), percent(w.HeadshotPercentage), w.TimesChosen})
	}
}

func ratio(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// playtime renders a count of seconds as hours and minutes.
func playtime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%dh%02dm", int64(d.Hours()), int64(d.Minutes())%60)
}
