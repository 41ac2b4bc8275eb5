// Package types provides common types used across invoicer.
package types

import "time"

// Entity carries the open/last-edit timestamps of a session-scoped object.
// Embed this in types that the engine expires when idle.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped with now.
func NewEntity(now time.Time) Entity {
	now = now.UTC()
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records an edit at now.
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Idle returns how long before now the entity was last edited.
func (e Entity) Idle(now time.Time) time.Duration {
	return now.Sub(e.UpdatedAt)
}

// IsStale returns true if the entity hasn't been edited within ttl.
// A non-positive ttl never goes stale.
func (e Entity) IsStale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return e.Idle(now) > ttl
}
