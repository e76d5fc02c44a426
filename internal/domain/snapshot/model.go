package snapshot

// WeeklyEntry is one player's line for one week. Points is always a finite
// number: when HasActual is false it is zero, never null, so season sums
// stay well-defined. Projected is nil when no projection existed for the
// week; zero and absent are different values and must not be conflated.
type WeeklyEntry struct {
	Week      int      `json:"week"`
	HasActual bool     `json:"hasActual"`
	Points    float64  `json:"points"`
	Projected *float64 `json:"projected"`
}

// PositionRank is a player's season-to-date standing within their primary
// position group.
type PositionRank struct {
	Position    string  `json:"position"`
	TotalPoints float64 `json:"totalPoints"`
	Rank        int     `json:"rank"`
}

// RankEntry describes one opposing team inside a position's rank table.
// Rank 1 is the team that has allowed the most fantasy points at the
// position; Scale is the number of distinct teams observed for it.
type RankEntry struct {
	Rank  int     `json:"rank"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
	Scale int     `json:"scale"`
}

// RankTable maps position -> opposing team code -> rank entry.
type RankTable map[string]map[string]RankEntry

// MatchupContext is the per-player, per-week derived view of how hard the
// player's matchup is.
type MatchupContext struct {
	Opponent      string  `json:"opponent"`
	Position      string  `json:"position"`
	Rank          int     `json:"rank"`
	SampleSize    int     `json:"sampleSize"`
	PointsAllowed float64 `json:"pointsAllowed"`
	Projected     float64 `json:"projected"`
}

// LeagueSnapshot is the full computed view of one league across its tracked
// players and weeks. It is rebuilt wholesale on each refresh; nothing is
// patched incrementally.
type LeagueSnapshot struct {
	LeagueID      string `json:"leagueId"`
	Season        string `json:"season"`
	StartWeek     int    `json:"startWeek"`
	CurrentWeek   int    `json:"currentWeek"`
	DisplayWeek   int    `json:"displayWeek"`
	StatsWeek     int    `json:"statsWeek"`
	SeasonEndWeek int    `json:"seasonEndWeek"`

	PlayerWeekly  map[string][]WeeklyEntry `json:"playerWeekly"`
	PositionRanks map[string]PositionRank  `json:"positionRanks"`

	// Current-week convenience views.
	Matchups     map[string]MatchupContext `json:"matchups"`
	MatchupRanks RankTable                 `json:"matchupRanks"`

	// Full per-week history, so derived queries can answer questions about
	// past weeks without a rebuild.
	MatchupsByWeek     map[int]map[string]MatchupContext `json:"matchupsByWeek"`
	MatchupRanksByWeek map[int]RankTable                 `json:"matchupRanksByWeek"`
}

// HasWeekHistory reports whether the snapshot carries the per-week history
// maps. Envelopes written before those fields existed decode without them;
// queries treat such snapshots as stale and force one rebuild.
func (s LeagueSnapshot) HasWeekHistory() bool {
	return s.MatchupsByWeek != nil && s.MatchupRanksByWeek != nil
}
