package client

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type RefreshState int32

const (
	StateIdle RefreshState = iota
	StateRefreshing
)

func (s RefreshState) String() string {
	if s == StateRefreshing {
		return "refreshing"
	}
	return "idle"
}

const (
	refreshKey            = "access-token"
	defaultRefreshTimeout = 15 * time.Second
)

var (
	// ErrLoggedOut means the refresh token was rejected or is missing. Login again.
	ErrLoggedOut = errors.New("client: logged out")
	// ErrUnauthorized is returned when a request is still rejected after a refresh.
	ErrUnauthorized = errors.New("client: unauthorized after refresh")

	errSessionRejected = errors.New("session rejected")
)

// exchangeFunc trades the stored refresh token for a new access token. It wraps
// errSessionRejected when the server refused the session itself.
type exchangeFunc func(ctx context.Context, creds Credentials) (string, error)

// RefreshCoordinator keeps at most one refresh exchange in flight. Callers that hit
// a 401 while an exchange is running wait for it instead of starting their own.
type RefreshCoordinator struct {
	group    singleflight.Group
	state    atomic.Int32
	tokens   *TokenStore
	exchange exchangeFunc
	onLogout func()
	timeout  time.Duration
	log      *slog.Logger
}

func newRefreshCoordinator(tokens *TokenStore, exchange exchangeFunc, onLogout func(), timeout time.Duration, log *slog.Logger) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &RefreshCoordinator{
		tokens:   tokens,
		exchange: exchange,
		onLogout: onLogout,
		timeout:  timeout,
		log:      log,
	}
}

func (r *RefreshCoordinator) State() RefreshState {
	return RefreshState(r.state.Load())
}

// Refresh returns an access token newer than stale. It joins the exchange in flight
// or starts one. ctx only bounds the wait: the exchange itself is not cancelled when
// a caller gives up.
func (r *RefreshCoordinator) Refresh(ctx context.Context, stale string) (string, error) {
	var token string
	// A joined flight may have been started for an older token and hand back the
	// one this caller already saw rejected. One more flight settles that.
	for round := 0; round < 2; round++ {
		ch := r.group.DoChan(refreshKey, func() (interface{}, error) {
			return r.run(stale)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return "", res.Err
			}
			token = res.Val.(string)
		case <-ctx.Done():
			return "", ctx.Err()
		}

		if token != stale {
			return token, nil
		}
	}
	return token, nil
}

func (r *RefreshCoordinator) run(stale string) (string, error) {
	r.state.Store(int32(StateRefreshing))
	defer r.state.Store(int32(StateIdle))

	creds := r.tokens.Get()
	if creds.AccessToken != "" && creds.AccessToken != stale {
		return creds.AccessToken, nil
	}
	if creds.UserID == "" || creds.RefreshToken == "" {
		return "", ErrLoggedOut
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	token, err := r.exchange(ctx, creds)
	if err != nil {
		if errors.Is(err, errSessionRejected) {
			r.log.Info("session rejected, logging out", "component", "client", "user_id", creds.UserID)
			r.tokens.Clear()
			if r.onLogout != nil {
				r.onLogout()
			}
			return "", ErrLoggedOut
		}
		r.log.Warn("access token refresh failed", "component", "client", "error", err)
		return "", err
	}

	r.tokens.SetAccessToken(token)
	r.log.Debug("access token refreshed", "component", "client", "user_id", creds.UserID)
	return token, nil
}
