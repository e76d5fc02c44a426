package sleeper

import "strconv"

// State is the shared "where is the NFL right now" document. It is the only
// globally shared lookup and is cached with a short TTL by the caller.
type State struct {
	Week         int    `json:"week"`
	DisplayWeek  int    `json:"display_week"`
	Leg          int    `json:"leg"`
	Season       string `json:"season"`
	SeasonType   string `json:"season_type"`
	LeagueSeason string `json:"league_season"`
}

// League is the core metadata for one league.
type League struct {
	LeagueID        string             `json:"league_id"`
	Name            string             `json:"name"`
	Season          string             `json:"season"`
	Status          string             `json:"status"`
	Settings        LeagueSettings     `json:"settings"`
	ScoringSettings map[string]float64 `json:"scoring_settings"`
}

type LeagueSettings struct {
	StartWeek        int `json:"start_week"`
	PlayoffWeekStart int `json:"playoff_week_start"`
	Leg              int `json:"leg"`
}

// Roster carries identifiers only as opaque strings. The wire format emits
// numeric roster ids; they are stringified at decode time and never treated
// as numbers again.
type Roster struct {
	RosterID string
	OwnerID  string
	Players  []string
	Starters []string
	Reserve  []string
	Taxi     []string
}

type rawRoster struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Reserve  []string `json:"reserve"`
	Taxi     []string `json:"taxi"`
}

func (r rawRoster) toRoster() Roster {
	return Roster{
		RosterID: strconv.Itoa(r.RosterID),
		OwnerID:  r.OwnerID,
		Players:  r.Players,
		Starters: r.Starters,
		Reserve:  r.Reserve,
		Taxi:     r.Taxi,
	}
}

// Matchup is one roster's side of a weekly head-to-head pairing.
type Matchup struct {
	RosterID      string
	MatchupID     string
	Points        float64
	Starters      []string
	Players       []string
	PlayersPoints map[string]float64
}

type rawMatchup struct {
	RosterID      int                `json:"roster_id"`
	MatchupID     int                `json:"matchup_id"`
	Points        float64            `json:"points"`
	Starters      []string           `json:"starters"`
	Players       []string           `json:"players"`
	PlayersPoints map[string]float64 `json:"players_points"`
}

func (m rawMatchup) toMatchup() Matchup {
	return Matchup{
		RosterID:      strconv.Itoa(m.RosterID),
		MatchupID:     strconv.Itoa(m.MatchupID),
		Points:        m.Points,
		Starters:      m.Starters,
		Players:       m.Players,
		PlayersPoints: m.PlayersPoints,
	}
}

// CatalogPlayer is the raw full-catalog record. Projection down to the
// directory shape is owned by the directory synchronizer, not the client.
type CatalogPlayer struct {
	PlayerID         string            `json:"player_id"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	FullName         string            `json:"full_name"`
	Team             string            `json:"team"`
	Position         string            `json:"position"`
	FantasyPositions []string          `json:"fantasy_positions"`
	Age              int               `json:"age"`
	YearsExp         int               `json:"years_exp"`
	Metadata         map[string]string `json:"metadata"`
}

// NormalizedFeed is the canonical output of the stat/projection
// normalizers: points per player and the opponent each player faced.
// A player may appear in Opponents without appearing in Points; rankings
// must not be starved just because scoring failed for a record.
type NormalizedFeed struct {
	Points    map[string]float64
	Opponents map[string]string
}

func emptyFeed() NormalizedFeed {
	return NormalizedFeed{
		Points:    make(map[string]float64),
		Opponents: make(map[string]string),
	}
}
