package sleeper

import (
	"math"
	"strings"
)

// DefaultScoringWeights is the half-PPR-ish baseline applied when a league
// supplies no overrides. Caller overrides replace individual categories;
// categories unknown to the defaults are carried through untouched.
var DefaultScoringWeights = map[string]float64{
	"pass_yd":  0.04,
	"pass_td":  4,
	"pass_int": -1,
	"pass_2pt": 2,
	"rush_yd":  0.1,
	"rush_td":  6,
	"rush_2pt": 2,
	"rec":      0.5,
	"rec_yd":   0.1,
	"rec_td":   6,
	"rec_2pt":  2,
	"fum_lost": -2,
}

// ScoringWeights merges overrides onto the defaults without mutating either.
func ScoringWeights(overrides map[string]float64) map[string]float64 {
	weights := make(map[string]float64, len(DefaultScoringWeights)+len(overrides))
	for category, weight := range DefaultScoringWeights {
		weights[category] = weight
	}
	for category, weight := range overrides {
		weights[category] = weight
	}
	return weights
}

// pointFieldFallbacks are consulted, in order, when no weighted category
// contributed to a player's score.
var pointFieldFallbacks = []string{"pts_ppr", "pts_half_ppr", "pts_std"}

// OpponentProbe extracts a candidate opponent string from a raw stat record.
type OpponentProbe struct {
	Name    string
	Extract func(record map[string]any) string
}

// OpponentProbes is the fixed priority order in which opponent fields are
// tried. The feed has shipped the opponent under several names over the
// years; the first probe that yields a non-empty candidate wins.
var OpponentProbes = []OpponentProbe{
	{Name: "opponent", Extract: directField("opponent")},
	{Name: "opp", Extract: directField("opp")},
	{Name: "opponent_team", Extract: directField("opponent_team")},
	{Name: "game.opponent", Extract: nestedField("game", "opponent")},
	{Name: "schedule.opponent", Extract: nestedField("schedule", "opponent")},
	{Name: "team.opponent", Extract: nestedField("team", "opponent")},
	{Name: "matchup.opponent", Extract: nestedField("matchup", "opponent")},
	{Name: "opponents[]", Extract: firstOfArray("opponents")},
}

func directField(key string) func(map[string]any) string {
	return func(record map[string]any) string {
		s, _ := record[key].(string)
		return s
	}
}

func nestedField(outer, inner string) func(map[string]any) string {
	return func(record map[string]any) string {
		sub, _ := record[outer].(map[string]any)
		if sub == nil {
			return ""
		}
		s, _ := sub[inner].(string)
		return s
	}
}

func firstOfArray(key string) func(map[string]any) string {
	return func(record map[string]any) string {
		items, _ := record[key].([]any)
		for _, item := range items {
			if s, _ := item.(string); strings.TrimSpace(s) != "" {
				return s
			}
		}
		return ""
	}
}

// teamAliases canonicalizes abbreviations the feed still emits for
// relocated franchises.
var teamAliases = map[string]string{
	"OAK": "LV",
	"SD":  "LAC",
}

const byeMarker = "BYE"

// NormalizeTeamCode reduces a candidate opponent string to uppercase
// letters, resolves legacy aliases, and maps the bye marker to "no
// opponent".
func NormalizeTeamCode(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if code == byeMarker {
		return ""
	}
	if canonical, ok := teamAliases[code]; ok {
		return canonical
	}
	return code
}

// NormalizeFeed converts a raw stat/projection payload, in either
// array-of-records or map-of-records shape, into the canonical feed.
func NormalizeFeed(raw any, weights map[string]float64) NormalizedFeed {
	feed := emptyFeed()

	switch payload := raw.(type) {
	case []any:
		for _, item := range payload {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			normalizeRecord(feed, recordPlayerID(record), record, weights)
		}
	case map[string]any:
		for playerID, item := range payload {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			normalizeRecord(feed, playerID, record, weights)
		}
	}

	return feed
}

func normalizeRecord(feed NormalizedFeed, playerID string, record map[string]any, weights map[string]float64) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return
	}

	stats := record
	if nested, ok := record["stats"].(map[string]any); ok {
		stats = nested
	}

	if points, ok := computePoints(stats, weights); ok {
		feed.Points[playerID] = round2(points)
	} else if points, ok := fallbackPoints(stats); ok {
		feed.Points[playerID] = round2(points)
	}

	// Opponent association is kept even when scoring failed.
	for _, probe := range OpponentProbes {
		if code := NormalizeTeamCode(probe.Extract(record)); code != "" {
			feed.Opponents[playerID] = code
			break
		}
	}
}

// computePoints applies the scoring formula over every category both the
// stat record and the weight table know about. When no category
// contributes, the score is undefined rather than zero.
func computePoints(stats map[string]any, weights map[string]float64) (float64, bool) {
	var total float64
	contributed := 0
	for category, rawValue := range stats {
		weight, ok := weights[category]
		if !ok || weight == 0 {
			continue
		}
		value, ok := asFloat(rawValue)
		if !ok || value == 0 {
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || math.IsNaN(weight) || math.IsInf(weight, 0) {
			continue
		}
		total += value * weight
		contributed++
	}
	return total, contributed > 0
}

func fallbackPoints(stats map[string]any) (float64, bool) {
	for _, field := range pointFieldFallbacks {
		if value, ok := asFloat(stats[field]); ok {
			return value, true
		}
	}
	return 0, false
}

func recordPlayerID(record map[string]any) string {
	if id, _ := record["player_id"].(string); id != "" {
		return id
	}
	if sub, ok := record["player"].(map[string]any); ok {
		if id, _ := sub["player_id"].(string); id != "" {
			return id
		}
		if id, _ := sub["id"].(string); id != "" {
			return id
		}
	}
	if id, _ := record["id"].(string); id != "" {
		return id
	}
	return ""
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
