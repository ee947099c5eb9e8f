// Package session holds the client's authentication state: the bearer token
// and the resolved role. Only the token is ever persisted.
package session

import (
	"sync"

	"github.com/manage-pm/manage-admin/internal/roles"
)

// State is a point-in-time copy of the session fields. The zero value is an
// anonymous session.
type State struct {
	Token string
	Role  roles.Role
}

// HasToken reports whether a bearer token is present.
func (s State) HasToken() bool {
	return s.Token != ""
}

// Session is the process-wide token/role pair. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	state State
}

// New returns an anonymous session.
func New() *Session {
	return &Session{}
}

// SetToken replaces the token. An empty token marks it absent.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.state.Token = token
	s.mu.Unlock()
}

// SetRole replaces the role. An empty role marks it absent.
func (s *Session) SetRole(role roles.Role) {
	s.mu.Lock()
	s.state.Role = role
	s.mu.Unlock()
}

// Token returns the current token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Role returns the current role or "".
func (s *Session) Role() roles.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Role
}

// Snapshot copies both fields under one lock.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Clear drops token and role.
func (s *Session) Clear() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

// Update runs fn with exclusive access so a read and the write depending on
// it cannot interleave with other updates.
func (s *Session) Update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}
