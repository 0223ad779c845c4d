// Package session holds the process-wide authentication state.
//
// [State] is written only by the authorization controller and read by everything that makes
// authorized requests. The authenticated flag and the token record always change together, so a
// reader never sees tokens without authentication or the reverse.
package session

import (
	"sync"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*State)(nil)

// Snapshot is an immutable copy of [State].
type Snapshot struct {
	IsAuthenticated bool
	IsLoading       bool
	Tokens          *models.TokenRecord
}

// Listener observes state changes. Listeners run synchronously after the lock is released.
type Listener func(prev, next Snapshot)

// State is the session container. The zero value is not usable; call [New].
type State struct {
	mu              sync.RWMutex
	isAuthenticated bool
	isLoading       bool
	tokens          *models.TokenRecord
	listeners       []Listener
}

// New returns a state that is loading and unauthenticated, awaiting hydration.
func New() *State {
	return &State{isLoading: true}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *State) snapshot() Snapshot {
	snap := Snapshot{IsAuthenticated: s.isAuthenticated, IsLoading: s.isLoading}
	if s.tokens != nil {
		t := *s.tokens
		snap.Tokens = &t
	}
	return snap
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated
}

func (s *State) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

// Tokens returns a copy of the current record, if any.
func (s *State) Tokens() (models.TokenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return models.TokenRecord{}, false
	}
	return *s.tokens, true
}

// Token implements [oauth2.TokenSource] so API clients can attach the current bearer credential.
func (s *State) Token() (*oauth2.Token, error) {
	rec, ok := s.Tokens()
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// OnChange registers fn to run after every mutation.
func (s *State) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Authenticate stores record and marks the session authenticated. A record without an access
// token clears the session instead.
func (s *State) Authenticate(record models.TokenRecord) {
	if record.AccessToken == "" {
		s.Clear()
		return
	}
	s.mutate(func() {
		s.tokens = &record
		s.isAuthenticated = true
	})
}

// Clear drops the credential and marks the session unauthenticated.
func (s *State) Clear() {
	s.mutate(func() {
		s.tokens = nil
		s.isAuthenticated = false
	})
}

// FinishLoading ends the hydration phase.
func (s *State) FinishLoading() {
	s.mutate(func() { s.isLoading = false })
}

func (s *State) mutate(fn func()) {
	s.mu.Lock()
	prev := s.snapshot()
	fn()
	next := s.snapshot()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
}

// Became reports whether the transition prev -> next gained a credential.
func Became(prev, next Snapshot) bool {
	return !prev.IsAuthenticated && next.IsAuthenticated
}

// Ended reports whether the transition prev -> next lost the credential.
func Ended(prev, next Snapshot) bool {
	return prev.IsAuthenticated && !next.IsAuthenticated
}
