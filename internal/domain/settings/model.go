package settings

import "context"

// Settings is the flat user document the core reads: the tracked league ids
// plus two display preferences consumed by the presentation layer.
type Settings struct {
	LeagueIDs       []string `json:"leagueIds"`
	ShowRanks       bool     `json:"showRanks"`
	ShowProjections bool     `json:"showProjections"`
}

type Repository interface {
	Get(ctx context.Context) (Settings, bool, error)
	Save(ctx context.Context, s Settings) error
}
