package model

import (
	"errors"
	"testing"
	"time"
)

func TestUserSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser("u1", "a@b.com", "hash", now)

	if err := u.AddSession(Session{TokenHash: "t1", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("AddSession t1: %v", err)
	}
	if err := u.AddSession(Session{TokenHash: "t2", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("AddSession t2: %v", err)
	}
	if err := u.AddSession(Session{TokenHash: "t1", ExpiresAt: now.Add(2 * time.Hour)}); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}

	if got := u.SessionCount(); got != 2 {
		t.Fatalf("SessionCount = %d, want 2", got)
	}

	s, ok := u.FindSession("t1")
	if !ok || !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("FindSession t1 = %+v, %v", s, ok)
	}
	if _, ok := u.FindSession("missing"); ok {
		t.Fatal("FindSession found an unregistered token")
	}

	if removed := u.PruneExpired(now); removed != 1 {
		t.Fatalf("PruneExpired removed %d, want 1", removed)
	}
	if _, ok := u.FindSession("t2"); ok {
		t.Fatal("expired session survived pruning")
	}
}

func TestSessionsReturnsCopy(t *testing.T) {
	u := NewUser("u1", "a@b.com", "hash", time.Now())
	_ = u.AddSession(Session{TokenHash: "t1", ExpiresAt: time.Now().Add(time.Hour)})

	sessions := u.Sessions()
	sessions[0].TokenHash = "mutated"

	if _, ok := u.FindSession("t1"); !ok {
		t.Fatal("mutating Sessions() result changed the aggregate")
	}

	clone := u.Clone()
	_ = clone.AddSession(Session{TokenHash: "t2", ExpiresAt: time.Now().Add(time.Hour)})
	if u.SessionCount() != 1 {
		t.Fatalf("clone shares session storage: count = %d", u.SessionCount())
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future", expiresAt: now.Add(time.Second), want: false},
		{name: "exactly-now", expiresAt: now, want: true},
		{name: "past", expiresAt: now.Add(-time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Session{ExpiresAt: tt.expiresAt}).Expired(now); got != tt.want {
				t.Fatalf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
