package model

import (
	"errors"
	"time"
)

// ErrDuplicateSession is returned by AddSession when the token hash is already registered.
var ErrDuplicateSession = errors.New("duplicate session token")

// Session is one logged-in device. Only the hash of the refresh token is kept.
type Session struct {
	TokenHash string    `json:"tokenHash" bson:"token_hash"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Expired reports whether the session is no longer usable at now (expiresAt <= now).
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// User is the identity aggregate. It is loaded, mutated and saved as a whole; the
// session collection is owned by the aggregate and only changed through its methods.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// Version is bumped on every save by stores that use optimistic concurrency.
	Version int64

	sessions []Session
}

func NewUser(id, email, passwordHash string, now time.Time) *User {
	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RestoreSessions replaces the collection when a store rehydrates the aggregate.
func (u *User) RestoreSessions(sessions []Session) {
	u.sessions = append([]Session(nil), sessions...)
}

// Sessions returns a copy of the session collection in insertion order.
func (u *User) Sessions() []Session {
	return append([]Session(nil), u.sessions...)
}

func (u *User) SessionCount() int {
	return len(u.sessions)
}

func (u *User) AddSession(s Session) error {
	if _, ok := u.FindSession(s.TokenHash); ok {
		return ErrDuplicateSession
	}
	u.sessions = append(u.sessions, s)
	return nil
}

func (u *User) FindSession(tokenHash string) (Session, bool) {
	for _, s := range u.sessions {
		if s.TokenHash == tokenHash {
			return s, true
		}
	}
	return Session{}, false
}

// PruneExpired drops every session expired at now and returns how many were removed.
func (u *User) PruneExpired(now time.Time) int {
	kept := u.sessions[:0]
	for _, s := range u.sessions {
		if !s.Expired(now) {
			kept = append(kept, s)
		}
	}
	removed := len(u.sessions) - len(kept)
	clear(u.sessions[len(kept):])
	u.sessions = kept
	return removed
}

// Clone returns a deep copy so in-memory stores never share the session slice.
func (u *User) Clone() *User {
	cp := *u
	cp.sessions = u.Sessions()
	return &cp
}

type UserResponse struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
