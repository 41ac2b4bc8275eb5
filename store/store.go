// Package store declares the registry the engine keeps live sessions in.
package store

import (
	"context"

	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/session"
)

// Store is the unified registry interface. Methods are declared explicitly
// rather than embedded so implementations see the full surface in one place.
// A store is not persistence: closing it drops every session.
type Store interface {
	// Session methods
	PutSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, sessionID id.SessionID) (*session.Session, error)
	DeleteSession(ctx context.Context, sessionID id.SessionID) error
	ListSessions(ctx context.Context, opts session.ListOpts) ([]*session.Session, error)
	CountSessions(ctx context.Context) (int, error)

	// Core methods
	Ping(ctx context.Context) error
	Close() error
}

var _ session.Store = Store(nil)
