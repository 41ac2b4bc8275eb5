// Package memory is the in-process session registry.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/session"
	"github.com/xraph/invoicer/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Session storage
	sessions map[string]*session.Session

	closed bool
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
	}
}

// Session Store implementation
func (s *Store) PutSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicer.ErrStoreClosed
	}
	if _, exists := s.sessions[sess.ID.String()]; exists {
		return invoicer.ErrSessionExists
	}
	s.sessions[sess.ID.String()] = sess
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID id.SessionID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoicer.ErrStoreClosed
	}
	if sess, ok := s.sessions[sessionID.String()]; ok {
		return sess, nil
	}
	return nil, invoicer.ErrSessionNotFound
}

func (s *Store) DeleteSession(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoicer.ErrStoreClosed
	}
	if _, ok := s.sessions[sessionID.String()]; !ok {
		return invoicer.ErrSessionNotFound
	}
	delete(s.sessions, sessionID.String())
	return nil
}

func (s *Store) ListSessions(_ context.Context, opts session.ListOpts) ([]*session.Session, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, invoicer.ErrStoreClosed
	}
	result := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if opts.Owner != "" && sess.Owner != opts.Owner {
			continue
		}
		result = append(result, sess)
	}
	s.mu.RUnlock()

	// Typeids are time-ordered, so the string order is the open order.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []*session.Session{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *Store) CountSessions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, invoicer.ErrStoreClosed
	}
	return len(s.sessions), nil
}

// Core methods
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return invoicer.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.sessions = make(map[string]*session.Session)
	return nil
}
