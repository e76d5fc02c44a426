package cache

import "time"

// SchemaVersion is bumped whenever the shape of any persisted payload
// changes. Envelopes written under an older version are treated as absent,
// never partially trusted.
const SchemaVersion = 3

// Envelope wraps a persisted payload with the metadata needed to judge its
// freshness without inspecting the payload itself.
type Envelope[T any] struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	Payload   T         `json:"payload"`
}

// Wrap stamps payload with the current schema version and time.
func Wrap[T any](payload T) Envelope[T] {
	return Envelope[T]{
		Version:   SchemaVersion,
		UpdatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Fresh fails closed: a zero envelope, a version mismatch, or an age of at
// least ttl all count as stale.
func (e Envelope[T]) Fresh(ttl time.Duration) bool {
	if e.Version != SchemaVersion {
		return false
	}
	if e.UpdatedAt.IsZero() || ttl <= 0 {
		return false
	}
	return time.Since(e.UpdatedAt) < ttl
}
