package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/model"
)

// FindUserBySessionToken resolves a (user id, refresh token) pair to the user and
// the matching session. It distinguishes ErrUserNotFound, ErrSessionNotFound and
// ErrSessionExpired; storage failures wrap ErrStorage.
func (s *AuthService) FindUserBySessionToken(ctx context.Context, userID, refreshToken string) (*model.User, model.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.Session{}, ErrUserNotFound
	}
	if refreshToken == "" {
		return nil, model.Session{}, ErrSessionNotFound
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, model.Session{}, ErrUserNotFound
		}
		return nil, model.Session{}, storageError(err)
	}

	session, ok := user.FindSession(hashRefreshToken(refreshToken))
	if !ok {
		return nil, model.Session{}, ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		return nil, model.Session{}, ErrSessionExpired
	}

	return user, session, nil
}

// VerifySession is the boundary used by the access-token endpoint: every rejection
// becomes ErrUnauthorized. Storage failures are passed through so an outage is not
// mistaken for a dead session.
func (s *AuthService) VerifySession(ctx context.Context, userID, refreshToken string) (*model.User, error) {
	user, _, err := s.FindUserBySessionToken(ctx, userID, refreshToken)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, ErrStorage) {
		s.log.Error("session lookup failed", "component", "auth", "user_id", userID, "error", err)
		return nil, err
	}

	s.metrics.AuthFailure(sessionFailureReason(err))
	s.log.Debug("session rejected", "component", "auth", "user_id", userID, "reason", err)
	return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
}

func sessionFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	default:
		return "session_not_found"
	}
}
