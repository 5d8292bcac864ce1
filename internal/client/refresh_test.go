package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tasklist/backend/internal/logger"
)

type gatedExchange struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	token   string
	err     error
}

func newGatedExchange(token string, err error) *gatedExchange {
	return &gatedExchange{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		token:   token,
		err:     err,
	}
}

func (g *gatedExchange) exchange(ctx context.Context, _ Credentials) (string, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.token, g.err
}

func loggedInStore() *TokenStore {
	return NewTokenStore(Credentials{UserID: "u1", AccessToken: "stale", RefreshToken: "refresh"})
}

func runWaiters(k int, r *RefreshCoordinator, stale string) []error {
	var wg sync.WaitGroup
	errs := make([]error, k)
	wg.Add(k)
	for i := 0; i < k; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Refresh(context.Background(), stale)
		}(i)
	}
	wg.Wait()
	return errs
}

func TestRefreshSingleFlight(t *testing.T) {
	store := loggedInStore()
	gate := newGatedExchange("fresh", nil)
	var logouts atomic.Int32
	r := newRefreshCoordinator(store, gate.exchange, func() { logouts.Add(1) }, time.Second, logger.Discard())

	if r.State() != StateIdle {
		t.Fatalf("expected idle, got %s", r.State())
	}

	const k = 5
	done := make(chan []error, 1)
	go func() { done <- runWaiters(k, r, "stale") }()

	<-gate.started
	if r.State() != StateRefreshing {
		t.Fatalf("expected refreshing while the exchange is open, got %s", r.State())
	}
	close(gate.release)

	for i, err := range <-done {
		if err != nil {
			t.Fatalf("waiter %d: %v", i, err)
		}
	}
	if got := gate.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one exchange, got %d", got)
	}
	if store.Get().AccessToken != "fresh" {
		t.Fatalf("stored token = %q", store.Get().AccessToken)
	}
	if r.State() != StateIdle {
		t.Fatalf("expected idle after settling, got %s", r.State())
	}
	if logouts.Load() != 0 {
		t.Fatal("successful refresh must not log out")
	}
}

func TestRefreshSkipsExchangeWhenTokenAlreadyReplaced(t *testing.T) {
	store := NewTokenStore(Credentials{UserID: "u1", AccessToken: "newer", RefreshToken: "refresh"})
	gate := newGatedExchange("unused", nil)
	r := newRefreshCoordinator(store, gate.exchange, nil, time.Second, logger.Discard())

	token, err := r.Refresh(context.Background(), "stale")
	if err != nil || token != "newer" {
		t.Fatalf("Refresh = %q, %v", token, err)
	}
	if gate.calls.Load() != 0 {
		t.Fatal("exchange should have been skipped")
	}
}

func TestRefreshRejectedLogsOutOnce(t *testing.T) {
	store := loggedInStore()
	gate := newGatedExchange("", errSessionRejected)
	var logouts atomic.Int32
	r := newRefreshCoordinator(store, gate.exchange, func() { logouts.Add(1) }, time.Second, logger.Discard())

	const k = 5
	done := make(chan []error, 1)
	go func() { done <- runWaiters(k, r, "stale") }()
	<-gate.started
	close(gate.release)

	for i, err := range <-done {
		if !errors.Is(err, ErrLoggedOut) {
			t.Fatalf("waiter %d: expected ErrLoggedOut, got %v", i, err)
		}
	}

	if _, err := r.Refresh(context.Background(), "stale"); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("late caller: expected ErrLoggedOut, got %v", err)
	}
	if got := logouts.Load(); got != 1 {
		t.Fatalf("expected one logout, got %d", got)
	}
	if got := gate.calls.Load(); got != 1 {
		t.Fatalf("expected one exchange, got %d", got)
	}
	if store.LoggedIn() || store.Get().AccessToken != "" {
		t.Fatalf("tokens were not cleared: %+v", store.Get())
	}
}

func TestRefreshTransportErrorKeepsSession(t *testing.T) {
	store := loggedInStore()
	dialErr := errors.New("dial tcp: connection refused")
	gate := newGatedExchange("", dialErr)
	close(gate.release)
	var logouts atomic.Int32
	r := newRefreshCoordinator(store, gate.exchange, func() { logouts.Add(1) }, time.Second, logger.Discard())

	_, err := r.Refresh(context.Background(), "stale")
	if !errors.Is(err, dialErr) || errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected the transport error, got %v", err)
	}
	if logouts.Load() != 0 || !store.LoggedIn() {
		t.Fatal("a transport failure must not log out")
	}
}

func TestRefreshCallerCancelDoesNotAbortExchange(t *testing.T) {
	store := loggedInStore()
	gate := newGatedExchange("fresh", nil)
	r := newRefreshCoordinator(store, gate.exchange, nil, time.Second, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Refresh(ctx, "stale")
		errCh <- err
	}()

	<-gate.started
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(gate.release)
	deadline := time.Now().Add(time.Second)
	for store.Get().AccessToken != "fresh" {
		if time.Now().After(deadline) {
			t.Fatal("abandoned exchange never stored its token")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefreshWithoutCredentials(t *testing.T) {
	gate := newGatedExchange("fresh", nil)
	r := newRefreshCoordinator(NewTokenStore(Credentials{}), gate.exchange, nil, time.Second, logger.Discard())

	if _, err := r.Refresh(context.Background(), ""); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut, got %v", err)
	}
	if gate.calls.Load() != 0 {
		t.Fatal("no exchange without a refresh token")
	}
}

func TestRefreshJoinerWithNewerStaleToken(t *testing.T) {
	store := NewTokenStore(Credentials{UserID: "u1", AccessToken: "A", RefreshToken: "refresh"})
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	exchange := func(ctx context.Context, _ Credentials) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "B", nil
		}
		return "C", nil
	}
	r := newRefreshCoordinator(store, exchange, nil, time.Second, logger.Discard())

	first := make(chan string, 1)
	go func() {
		token, _ := r.Refresh(context.Background(), "A")
		first <- token
	}()
	<-started

	// This caller already saw "B" rejected, so the in-flight result is no use to it.
	joined := make(chan string, 1)
	go func() {
		token, err := r.Refresh(context.Background(), "B")
		if err != nil {
			t.Errorf("joiner Refresh: %v", err)
		}
		joined <- token
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if got := <-first; got != "B" {
		t.Fatalf("starter token = %q, want B", got)
	}
	if got := <-joined; got != "C" {
		t.Fatalf("joiner token = %q, want C", got)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("expected 2 exchanges, got %d", n)
	}
	if got := store.Get().AccessToken; got != "C" {
		t.Fatalf("stored token = %q, want C", got)
	}
}
