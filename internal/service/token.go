package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/model"
	"golang.org/x/crypto/hkdf"
)

const (
	refreshTokenBytes   = 32
	signingKeyBytes     = 32
	maxSessionAttempts  = 3
	signingKeyInfoLabel = "access-token:"
)

// CreateSession opens a new session on the user aggregate and returns the opaque
// refresh token. Expired sessions are pruned in the same write. user is updated
// in place with the saved aggregate.
func (s *AuthService) CreateSession(ctx context.Context, user *model.User) (string, error) {
	for attempt := 0; attempt < maxSessionAttempts; attempt++ {
		token, hash, err := newRefreshToken()
		if err != nil {
			return "", err
		}

		now := s.now()
		saved, err := s.users.UpdateUser(ctx, user.ID, func(u *model.User) error {
			if pruned := u.PruneExpired(now); pruned > 0 {
				s.log.Debug("pruned expired sessions", "component", "auth", "user_id", u.ID, "count", pruned)
			}
			u.UpdatedAt = now
			return u.AddSession(model.Session{
				TokenHash: hash,
				ExpiresAt: now.Add(s.refreshTTL),
				CreatedAt: now,
			})
		})
		if errors.Is(err, model.ErrDuplicateSession) {
			continue
		}
		if err != nil {
			if db.IsNotFound(err) {
				return "", ErrUserNotFound
			}
			return "", storageError(err)
		}

		*user = *saved
		s.metrics.TokenIssued("refresh")
		return token, nil
	}
	return "", fmt.Errorf("%w: could not allocate a unique refresh token", ErrStorage)
}

// GenerateAccessAuthToken signs {sub, iat, exp} with the user's derived key.
// It does not touch storage.
func (s *AuthService) GenerateAccessAuthToken(user *model.User) (string, error) {
	key, err := s.signingKey(user.ID)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", err
	}

	s.metrics.TokenIssued("access")
	return signed, nil
}

// Authenticate verifies an access token without a store lookup. Every failure
// (malformed, wrong signature, expired) collapses to ErrUnauthorized.
func (s *AuthService) Authenticate(tokenStr string) (*model.AuthUser, error) {
	if strings.TrimSpace(tokenStr) == "" {
		s.metrics.AuthFailure("access_token")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrTokenInvalid)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return nil, ErrTokenInvalid
		}
		return s.signingKey(subject)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		s.metrics.AuthFailure("access_token")
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, ErrTokenInvalid)
	}

	return &model.AuthUser{ID: claims.Subject}, nil
}

// signingKey derives the per-user HMAC key from the server secret, so verification
// needs only the token's subject.
func (s *AuthService) signingKey(userID string) ([]byte, error) {
	key := make([]byte, signingKeyBytes)
	r := hkdf.New(sha256.New, s.jwtSecret, nil, []byte(signingKeyInfoLabel+userID))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func newRefreshToken() (string, string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
