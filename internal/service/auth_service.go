package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/domain"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/ratelimit"
	"github.com/spec-kit/storefront/internal/repository"
	apperrors "github.com/spec-kit/storefront/pkg/util"
)

// Login outcomes reported to the LoginRecorder.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginRateLimited        = "rate_limited"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// LoginInput carries the credentials of a login attempt.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// AuthService coordinates registration, login and account lookups.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenCodec
	limiter    ratelimit.Limiter
	dispatcher events.Dispatcher
	recorder   LoginRecorder
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenCodec
	Limiter    ratelimit.Limiter
	Dispatcher events.Dispatcher
	Recorder   LoginRecorder
	Logger     *zap.Logger
}

// NewAuthService builds the service. When deps.Tokens is nil a codec is built
// from the auth config.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     tokens,
		limiter:    limiter,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		now:        time.Now,
	}
}

var errInvalidCredentials = apperrors.NewUnauthorized("INVALID_CREDENTIALS", "invalid credentials", nil)

// RegisterUser creates a customer account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokens.Issue(auth.IssueClaims{SubjectID: user.ID, Role: user.Role}, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Email: user.Email,
		Role:  user.Role,
	})
	return user, token, exp, nil
}

// LoginUser checks credentials and issues a token carrying the stored role.
func (s *AuthService) LoginUser(ctx context.Context, in LoginInput) (*domain.User, string, time.Time, error) {
	email := normalizeEmail(in.Email)
	limitKey := in.ClientIP
	if limitKey == "" {
		limitKey = email
	}

	allowed, err := s.limiter.Allow(ctx, limitKey)
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	}
	if !allowed {
		s.loginFailed(ctx, email, LoginRateLimited, in.ClientIP)
		return nil, "", time.Time{}, apperrors.NewTooManyRequests("too many login attempts")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.loginFailed(ctx, email, "unknown_email", in.ClientIP)
			return nil, "", time.Time{}, errInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		s.loginFailed(ctx, email, "bad_password", in.ClientIP)
		return nil, "", time.Time{}, errInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(auth.IssueClaims{SubjectID: user.ID, Role: user.Role}, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if r, ok := s.limiter.(ratelimit.Resetter); ok {
		if err := r.Reset(ctx, limitKey); err != nil {
			s.logger.Warn("reset login rate limit", zap.Error(err))
		}
	}
	s.recordLogin(LoginSuccess)
	s.publish(ctx, events.EventLoginSucceeded, user.ID, events.LoginSucceededPayload{
		Role:     user.Role,
		ClientIP: in.ClientIP,
	})
	return user, token, exp, nil
}

// Profile returns the account behind an authenticated identity.
func (s *AuthService) Profile(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, err
}

// ListUsers returns a page of accounts.
func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	return s.users.List(ctx, filter)
}

// EnsureAdmin makes sure an account with email exists and holds the admin
// role. An existing account keeps its password. It returns true when the
// account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperrors.NewValidationError("admin email required", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if err := s.users.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return false, err
			}
		}
		s.publish(ctx, events.EventAdminSeeded, existing.ID, events.AdminSeededPayload{Email: email})
		return false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return false, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	user := &domain.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	s.publish(ctx, events.EventAdminSeeded, user.ID, events.AdminSeededPayload{Email: email, Created: true})
	return true, nil
}

// Logout currently no-ops for stateless JWT approach; clients drop the token.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// TokenCodec exposes the codec for middleware usage.
func (s *AuthService) TokenCodec() *auth.TokenCodec {
	return s.tokens
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason, clientIP string) {
	outcome := LoginInvalidCredentials
	if reason == LoginRateLimited {
		outcome = LoginRateLimited
	}
	s.recordLogin(outcome)
	s.publish(ctx, events.EventLoginFailed, "", events.LoginFailedPayload{
		Email:    email,
		Reason:   reason,
		ClientIP: clientIP,
	})
}

func (s *AuthService) recordLogin(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(outcome)
	}
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
