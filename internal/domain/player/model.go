package player

import (
	"strings"
	"time"
)

// UnknownPosition is the sentinel used when no position can be derived for a
// player from any catalog field.
const UnknownPosition = "UNK"

// Record is the slimmed directory entry kept for every player in the
// upstream catalog. IDs are opaque strings end to end; some feeds emit
// numeric-looking ids and team defenses use team codes, so no numeric
// semantics may be assumed.
type Record struct {
	ID               string   `json:"id"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	FullName         string   `json:"fullName"`
	Team             string   `json:"team"`
	Position         string   `json:"position"`
	FantasyPositions []string `json:"fantasyPositions"`
	MetadataPosition string   `json:"metadataPosition"`
	Age              int      `json:"age"`
	YearsExp         int      `json:"yearsExp"`
}

// PrimaryPosition derives the position used for grouping: first non-empty of
// the declared fantasy positions, the listed position, the metadata
// position, then the UNK sentinel.
func (r Record) PrimaryPosition() string {
	for _, pos := range r.FantasyPositions {
		if p := strings.TrimSpace(pos); p != "" {
			return p
		}
	}
	if p := strings.TrimSpace(r.Position); p != "" {
		return p
	}
	if p := strings.TrimSpace(r.MetadataPosition); p != "" {
		return p
	}
	return UnknownPosition
}

// Directory is the whole-catalog payload replaced atomically on each
// directory refresh.
type Directory struct {
	LastSync time.Time         `json:"lastSync"`
	Records  map[string]Record `json:"records"`
}
