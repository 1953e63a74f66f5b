package rp

import (
	"errors"
	"sync"

	"github.com/openidtools/oidc/pkg/oidc"
)

// AuthState tracks the progress of one authentication attempt.
type AuthState int

const (
	StateUnstarted AuthState = iota
	StateDiscovered
	StateRegistered
	StateAuthorizationSent
	StateAuthorizationReceived
	StateTokenExchanged
	StateUserInfoRetrieved
	StateValidated
)

var ErrSessionNotFound = errors.New("no session for state")

// AuthSession carries the per-attempt values a relying party must hold
// between sending the authorization request and validating the tokens.
// Sessions are keyed by the state parameter so concurrent flows against
// the same provider never share nonce or PKCE verifier.
type AuthSession struct {
	State        AuthState
	StateParam   string
	Nonce        string
	CodeVerifier string
	Scopes       []string
	RedirectURI  string

	Tokens *oidc.Tokens[*oidc.IDTokenClaims]
	Info   *oidc.UserInfo
}

// AuthSessionStore is an in-memory session registry for callers that do
// not use the cookie based http handlers.
type AuthSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*AuthSession
}

func NewAuthSessionStore() *AuthSessionStore {
	return &AuthSessionStore{
		sessions: make(map[string]*AuthSession),
	}
}

// Start registers a new session under its state parameter. A session
// with the same state is replaced.
func (s *AuthSessionStore) Start(stateParam, nonce, codeVerifier string, scopes []string, redirectURI string) *AuthSession {
	session := &AuthSession{
		State:        StateAuthorizationSent,
		StateParam:   stateParam,
		Nonce:        nonce,
		CodeVerifier: codeVerifier,
		Scopes:       scopes,
		RedirectURI:  redirectURI,
	}
	s.mu.Lock()
	s.sessions[stateParam] = session
	s.mu.Unlock()
	return session
}

// Get returns the session registered under the state parameter.
func (s *AuthSessionStore) Get(stateParam string) (*AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[stateParam]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Take returns and removes the session, so an authorization response can
// be accepted at most once per state.
func (s *AuthSessionStore) Take(stateParam string) (*AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[stateParam]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(s.sessions, stateParam)
	return session, nil
}
