package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasklist/backend/internal/config"
	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/handler"
	"github.com/tasklist/backend/internal/model"
	"github.com/tasklist/backend/internal/service"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type apiHarness struct {
	server       *httptest.Server
	clock        *fakeClock
	refreshCalls atomic.Int32
	logouts      atomic.Int32
	client       *Client
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &apiHarness{clock: &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}}
	store := db.NewMemory()
	auth, err := service.NewAuthService(store, config.AuthConfig{
		JWTSecret:     "client-test-secret-0123456789abcdef",
		JWTAccessTTL:  "15m",
		JWTRefreshTTL: "240h",
		BcryptCost:    "4",
	}, service.WithClock(h.clock.Now))
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           auth,
		Lists:          service.NewListService(store),
		AllowedOrigins: []string{"*"},
	})
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/me/access-token" {
			h.refreshCalls.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(h.server.Close)

	h.client = New(h.server.URL,
		WithHTTPClient(h.server.Client()),
		WithLogoutHandler(func() { h.logouts.Add(1) }),
	)
	return h
}

func fireConcurrently(k int, fn func() error) []error {
	var wg sync.WaitGroup
	errs := make([]error, k)
	wg.Add(k)
	for i := 0; i < k; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = fn()
		}(i)
	}
	wg.Wait()
	return errs
}

func TestSessionLifecycleAgainstServer(t *testing.T) {
	ctx := context.Background()
	h := newAPIHarness(t)
	c := h.client

	user, err := c.Signup(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	creds := c.Tokens().Get()
	if user.ID == "" || creds.UserID != user.ID || creds.AccessToken == "" || creds.RefreshToken == "" {
		t.Fatalf("unexpected credentials after signup: %+v", creds)
	}

	list, err := c.CreateList(ctx, "Groceries")
	if err != nil {
		t.Fatalf("CreateList with fresh token: %v", err)
	}
	if h.refreshCalls.Load() != 0 {
		t.Fatal("fresh token must not trigger a refresh")
	}

	// Access token expires; the next call refreshes transparently.
	h.clock.Advance(16 * time.Minute)
	if _, err := c.CreateTask(ctx, list.ID, "Milk"); err != nil {
		t.Fatalf("CreateTask after expiry: %v", err)
	}
	if got := h.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected one refresh call, got %d", got)
	}
	if c.Tokens().Get().AccessToken == creds.AccessToken {
		t.Fatal("access token was not replaced")
	}

	// Five requests with an expired token share one refresh.
	h.clock.Advance(16 * time.Minute)
	before := h.refreshCalls.Load()
	errs := fireConcurrently(5, func() error {
		_, err := c.GetTasks(ctx, list.ID)
		return err
	})
	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if got := h.refreshCalls.Load() - before; got != 1 {
		t.Fatalf("expected exactly one refresh for 5 requests, got %d", got)
	}
	if h.logouts.Load() != 0 {
		t.Fatal("unexpected logout")
	}

	// Session expiry ends the client session exactly once.
	h.clock.Advance(241 * time.Hour)
	errs = fireConcurrently(5, func() error {
		_, err := c.GetLists(ctx)
		return err
	})
	for i, err := range errs {
		if !errors.Is(err, ErrLoggedOut) {
			t.Fatalf("request %d: expected ErrLoggedOut, got %v", i, err)
		}
	}
	if got := h.logouts.Load(); got != 1 {
		t.Fatalf("expected one logout, got %d", got)
	}
	if c.Tokens().LoggedIn() {
		t.Fatal("tokens were not cleared")
	}

	// A new login restores access.
	if _, err := c.Login(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	me, err := c.Me(ctx)
	if err != nil || me.ID != user.ID {
		t.Fatalf("Me = %+v, %v", me, err)
	}
}

func TestListAndTaskCalls(t *testing.T) {
	ctx := context.Background()
	h := newAPIHarness(t)
	c := h.client

	if _, err := c.Signup(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	list, err := c.CreateList(ctx, "Chores")
	if err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if err := c.UpdateList(ctx, list.ID, "House"); err != nil {
		t.Fatalf("UpdateList: %v", err)
	}
	task, err := c.CreateTask(ctx, list.ID, "Dishes")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	done := true
	updated, err := c.UpdateTask(ctx, list.ID, task.ID, modelPatch(nil, &done))
	if err != nil || !updated.Completed {
		t.Fatalf("UpdateTask = %+v, %v", updated, err)
	}
	if _, err := c.DeleteTask(ctx, list.ID, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	removed, err := c.DeleteList(ctx, list.ID)
	if err != nil || removed.Title != "House" {
		t.Fatalf("DeleteList = %+v, %v", removed, err)
	}

	_, err = c.GetTasks(ctx, list.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}

	if _, err := c.Signup(ctx, "a@b.com", "secret123"); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate signup: expected 400, got %v", err)
	}
}

func TestSecond401IsTerminal(t *testing.T) {
	var listCalls, refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me/access-token":
			refreshCalls.Add(1)
			w.Header().Set("x-access-token", "renewed")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"accessToken":"renewed"}`))
		default:
			listCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenStore(NewTokenStore(Credentials{UserID: "u1", AccessToken: "old", RefreshToken: "r"})))
	if _, err := c.GetLists(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if listCalls.Load() != 2 || refreshCalls.Load() != 1 {
		t.Fatalf("expected 2 sends and 1 refresh, got %d and %d", listCalls.Load(), refreshCalls.Load())
	}
	if c.Tokens().Get().AccessToken != "renewed" {
		t.Fatal("renewed token should be kept")
	}
}

func TestRefreshServerErrorDoesNotLogOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/me/access-token" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"server error"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var logouts atomic.Int32
	c := New(srv.URL,
		WithTokenStore(NewTokenStore(Credentials{UserID: "u1", AccessToken: "old", RefreshToken: "r"})),
		WithLogoutHandler(func() { logouts.Add(1) }),
	)

	_, err := c.GetLists(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError || errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected the 500 to surface, got %v", err)
	}
	if logouts.Load() != 0 || !c.Tokens().LoggedIn() {
		t.Fatal("a server error on refresh must not log out")
	}
}

func modelPatch(title *string, completed *bool) model.TaskPatch {
	return model.TaskPatch{Title: title, Completed: completed}
}
