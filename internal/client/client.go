// Package client is a Go client for the tasklist API. Authenticated calls refresh
// the access token once on 401 through a shared RefreshCoordinator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tasklist/backend/internal/logger"
	"github.com/tasklist/backend/internal/model"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         *TokenStore
	onLogout       func()
	refreshTimeout time.Duration
	log            *slog.Logger
	refresher      *RefreshCoordinator
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenStore(s *TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// WithLogoutHandler registers fn to run once when the server rejects the session.
func WithLogoutHandler(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.refreshTimeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = NewTokenStore(Credentials{})
	}
	c.refresher = newRefreshCoordinator(c.tokens, c.exchangeRefreshToken, c.onLogout, c.refreshTimeout, c.log)
	return c
}

func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

func (c *Client) Refresher() *RefreshCoordinator {
	return c.refresher
}

// Signup creates an account and stores the returned tokens.
func (c *Client) Signup(ctx context.Context, email, password string) (*model.UserResponse, error) {
	return c.authenticate(ctx, "/users", email, password)
}

// Login opens a new session and stores the returned tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*model.UserResponse, error) {
	return c.authenticate(ctx, "/users/login", email, password)
}

// Logout forgets the local credentials. The server session stays valid until it expires.
func (c *Client) Logout() {
	c.tokens.Clear()
}

func (c *Client) Me(ctx context.Context) (*model.UserResponse, error) {
	var user model.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetLists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	if err := c.do(ctx, http.MethodGet, "/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateList(ctx context.Context, title string) (*model.List, error) {
	var list model.List
	if err := c.do(ctx, http.MethodPost, "/lists", model.ListRequest{Title: title}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) UpdateList(ctx context.Context, listID, title string) error {
	return c.do(ctx, http.MethodPatch, listPath(listID), model.ListRequest{Title: title}, nil)
}

func (c *Client) DeleteList(ctx context.Context, listID string) (*model.List, error) {
	var resp model.ListDeletedResponse
	if err := c.do(ctx, http.MethodDelete, listPath(listID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.RemovedList, nil
}

func (c *Client) GetTasks(ctx context.Context, listID string) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, listPath(listID)+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, listID, title string) (*model.Task, error) {
	var resp model.TaskCreatedResponse
	if err := c.do(ctx, http.MethodPost, listPath(listID)+"/tasks", model.TaskRequest{Title: title}, &resp); err != nil {
		return nil, err
	}
	return resp.TaskDoc, nil
}

func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	var resp model.TaskUpdatedResponse
	if err := c.do(ctx, http.MethodPatch, taskPath(listID, taskID), patch, &resp); err != nil {
		return nil, err
	}
	return resp.UpdatedTask, nil
}

func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) (*model.Task, error) {
	var resp model.TaskDeletedResponse
	if err := c.do(ctx, http.MethodDelete, taskPath(listID, taskID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.RemovedTask, nil
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*model.UserResponse, error) {
	payload, err := json.Marshal(model.AuthRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth request: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, path, payload, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user model.UserResponse
	if err := decodeResponse(resp, &user); err != nil {
		return nil, err
	}

	creds := Credentials{
		UserID:       user.ID,
		AccessToken:  resp.Header.Get(model.HeaderAccessToken),
		RefreshToken: resp.Header.Get(model.HeaderRefreshToken),
	}
	if creds.UserID == "" || creds.AccessToken == "" || creds.RefreshToken == "" {
		return nil, errors.New("auth response is missing the user id or token headers")
	}
	c.tokens.Set(creds)
	return &user, nil
}

// do sends an authenticated request. On 401 it refreshes once and resends once;
// a second 401 is ErrUnauthorized.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	token := c.tokens.Get().AccessToken
	resp, err := c.send(ctx, method, path, payload, accessHeader(token))
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		fresh, err := c.refresher.Refresh(ctx, token)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, payload, accessHeader(fresh))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) exchangeRefreshToken(ctx context.Context, creds Credentials) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/users/me/access-token", nil, map[string]string{
		model.HeaderRefreshToken: creds.RefreshToken,
		model.HeaderUserID:       creds.UserID,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body model.AccessTokenResponse
	if err := decodeResponse(resp, &body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return "", fmt.Errorf("%w: %w", errSessionRejected, err)
		}
		return "", err
	}

	token := resp.Header.Get(model.HeaderAccessToken)
	if token == "" {
		token = body.AccessToken
	}
	if token == "" {
		return "", errors.New("refresh response carried no access token")
	}
	return token, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, headers map[string]string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body model.ErrorResponse
		_ = json.Unmarshal(data, &body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func accessHeader(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{model.HeaderAccessToken: token}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func listPath(listID string) string {
	return "/lists/" + url.PathEscape(listID)
}

func taskPath(listID, taskID string) string {
	return listPath(listID) + "/tasks/" + url.PathEscape(taskID)
}
