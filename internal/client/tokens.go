package client

import "sync"

// Credentials is what a logged-in client keeps between calls.
type Credentials struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore holds the current credentials. Readers always see a complete set.
type TokenStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewTokenStore(creds Credentials) *TokenStore {
	return &TokenStore{creds: creds}
}

func (s *TokenStore) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *TokenStore) Set(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
}

func (s *TokenStore) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = token
}

func (s *TokenStore) Clear() {
	s.Set(Credentials{})
}

// LoggedIn reports whether a refresh is possible.
func (s *TokenStore) LoggedIn() bool {
	c := s.Get()
	return c.UserID != "" && c.RefreshToken != ""
}
