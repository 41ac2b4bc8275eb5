// Package session defines the registry entry for one editing session.
package session

import (
	"context"

	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/ledger"
	"github.com/xraph/invoicer/types"
)

// Session binds a handle to the manager that owns its document.
type Session struct {
	ID      id.SessionID      `json:"id"`
	Owner   string            `json:"owner,omitempty"`
	Labels  map[string]string `json:"labels,omitempty"`
	Manager *ledger.Manager   `json:"-"`
}

// Activity returns when the session was opened and last edited.
func (s *Session) Activity() types.Entity {
	return s.Manager.Activity()
}

// Info is the serializable summary of a session.
type Info struct {
	types.Entity

	ID     id.SessionID      `json:"id"`
	Owner  string            `json:"owner,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
	Number string            `json:"number"`
	Kind   string            `json:"kind"`
	Items  int               `json:"items"`
	Total  types.Money       `json:"total"`
}

// Info summarizes the session from a fresh snapshot.
func (s *Session) Info() Info {
	rec := s.Manager.Snapshot()
	return Info{
		ID:     s.ID,
		Owner:  s.Owner,
		Labels: s.Labels,
		Entity: s.Manager.Activity(),
		Number: rec.Number,
		Kind:   string(rec.Kind),
		Items:  len(rec.Items),
		Total:  rec.Total,
	}
}

// Store is the registry of live sessions.
type Store interface {
	PutSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID id.SessionID) (*Session, error)
	DeleteSession(ctx context.Context, sessionID id.SessionID) error
	ListSessions(ctx context.Context, opts ListOpts) ([]*Session, error)
	CountSessions(ctx context.Context) (int, error)
}

// ListOpts filters and pages ListSessions. Results are ordered by open time.
type ListOpts struct {
	Owner  string
	Limit  int
	Offset int
}
