// Package auth implements admin login and logout against the user store,
// with Redis-backed rate limiting and a server-side session registry so
// tokens can be revoked before they expire.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwell-tcg/inkwell-backend/internal/users"
	pkgauth "github.com/inkwell-tcg/inkwell-backend/pkg/auth"
	"github.com/inkwell-tcg/inkwell-backend/pkg/auth/session"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	"github.com/inkwell-tcg/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwell-tcg/inkwell-backend/pkg/errors"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/security"
)

// LoginInput is the credential pair plus the caller's address for
// per-IP throttling.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	ClientIP string `json:"-"`
}

// LoginResult carries the minted token and its subject.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	UserID      uuid.UUID      `json:"user_id"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
}

type sessionRegistry interface {
	Create(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

// loginLimiter throttles login attempts. Allow returns false when the
// counter for the key has exceeded its limit inside the window.
type loginLimiter interface {
	Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, error)
}

// Service defines the admin auth operations.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users    users.Repository
	sessions sessionRegistry
	limiter  loginLimiter
	jwtCfg   config.JWTConfig
	rlCfg    config.RateLimitConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Users     users.Repository
	Sessions  sessionRegistry
	Limiter   loginLimiter
	JWT       config.JWTConfig
	RateLimit config.RateLimitConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService builds the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		limiter:  params.Limiter,
		jwtCfg:   params.JWT,
		rlCfg:    params.RateLimit,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := users.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	if err := s.checkRateLimits(ctx, email, input.ClientIP); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// same rejection as a bad password, no user enumeration
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive || user.Role != enums.UserRoleAdmin {
		return nil, invalidCredentials()
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"email": email}), "login rejected")
		return nil, invalidCredentials()
	}

	now := s.now().UTC()
	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.sessions.Create(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// stamp is informational, the login already succeeded
		s.logg.Error(ctx, "update last login", err)
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(logCtx, "admin logged in")

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) checkRateLimits(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, "login:email", email, s.rlCfg.LoginEmailLimit, s.rlCfg.LoginWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !allowed {
		return rateLimited()
	}
	if clientIP != "" {
		allowed, err = s.limiter.Allow(ctx, "login:ip", clientIP, s.rlCfg.LoginIPLimit, s.rlCfg.LoginWindow)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return rateLimited()
		}
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}

func rateLimited() error {
	return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
}
