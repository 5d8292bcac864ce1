package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tasklist/backend/internal/config"
	"github.com/tasklist/backend/internal/db"
	"github.com/tasklist/backend/internal/logger"
	"github.com/tasklist/backend/internal/metrics"
	"github.com/tasklist/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	minEmailLength    = 3
	maxEmailLength    = 254
	minPasswordLength = 8
	// bcrypt only reads the first 72 bytes and rejects longer input.
	maxPasswordLength = 72
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrRateLimited        = errors.New("too many attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrStorage            = errors.New("storage failure")
	ErrMisconfigured      = errors.New("auth config invalid")
)

type userRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type loginLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

type AuthService struct {
	users      userRepository
	limiter    loginLimiter
	metrics    *metrics.Metrics
	log        *slog.Logger
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

type AuthOption func(*AuthService)

// WithClock replaces time.Now for token issuance, session expiry and token verification.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func WithLoginLimiter(l loginLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

func WithLogger(log *slog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(users userRepository, cfg config.AuthConfig, opts ...AuthOption) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil || accessTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	refreshTTL, err := time.ParseDuration(cfg.JWTRefreshTTL)
	if err != nil || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	cost, err := parseBcryptCost(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid BCRYPT_COST", ErrMisconfigured)
	}

	s := &AuthService{
		users:      users,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: cost,
		now:        time.Now,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup creates the user and its first session.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*model.User, model.TokenPair, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, model.TokenPair{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, model.TokenPair{}, ErrInvalidInput
	}
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	user := model.NewUser(uuid.NewString(), email, string(hash), s.now())
	if err := s.users.CreateUser(ctx, user); err != nil {
		if db.IsDuplicate(err) {
			return nil, model.TokenPair{}, ErrConflict
		}
		return nil, model.TokenPair{}, storageError(err)
	}

	saved, tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		// Without a session the account is unusable; drop it so signup can be retried.
		if delErr := s.users.DeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil && !db.IsNotFound(delErr) {
			s.log.Error("orphaned user after failed signup", "component", "auth", "user_id", user.ID, "error", delErr)
		}
		return nil, model.TokenPair{}, err
	}

	s.log.Info("user signed up", "component", "auth", "user_id", user.ID)
	return saved, tokens, nil
}

// Login checks the credentials and opens a new session. Existing sessions stay valid.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, model.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.TokenPair{}, ErrInvalidInput
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.log.Warn("login limiter unavailable", "component", "auth", "error", err)
		} else if !ok {
			s.metrics.AuthFailure("rate_limited")
			return nil, model.TokenPair{}, ErrRateLimited
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			s.loginFailed(ctx, email)
			return nil, model.TokenPair{}, ErrInvalidCredentials
		}
		return nil, model.TokenPair{}, storageError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(ctx, email)
		return nil, model.TokenPair{}, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn("login limiter reset failed", "component", "auth", "error", err)
		}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*model.User, model.TokenPair, error) {
	refreshToken, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	accessToken, err := s.GenerateAccessAuthToken(user)
	if err != nil {
		return nil, model.TokenPair{}, err
	}

	return user, model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string) {
	s.metrics.AuthFailure("invalid_credentials")
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		s.log.Warn("login limiter record failed", "component", "auth", "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return ErrInvalidInput
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidInput
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

func parseBcryptCost(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return bcrypt.DefaultCost, nil
	}
	cost, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return 0, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	return cost, nil
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
