// Package session holds the CLI's single logged-in session in memory.
package session

import (
	"sync"

	"github.com/ourcity/ourcity-cli/transport"
)

// Session pairs a credential set with the username that obtained it.
type Session struct {
	Credentials transport.Credentials
	Username    string
}

// Store is a thread-safe single-slot session holder. Sessions are lost when
// the process exits.
type Store struct {
	mu      sync.RWMutex
	current *Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Save replaces any existing session.
func (s *Store) Save(creds transport.Credentials, username string) {
	s.mu.Lock()
	s.current = &Session{
		Credentials: creds.Clone(),
		Username:    username,
	}
	s.mu.Unlock()
}

// Load returns a copy of the current session. Returns false if no session
// has been saved since the last Clear.
func (s *Store) Load() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return Session{
		Credentials: s.current.Credentials.Clone(),
		Username:    s.current.Username,
	}, true
}

// Clear drops the current session, if any.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// IsActive reports whether a session is present and carries credentials.
// A session saved without credentials never counts as logged in.
func (s *Store) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Credentials != nil
}

// Credentials returns the active credential set, or nil when anonymous.
func (s *Store) Credentials() transport.Credentials {
	if sess, ok := s.Load(); ok {
		return sess.Credentials
	}
	return nil
}
