package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/startline/auth-server/internal/auth"
	"github.com/startline/auth-server/internal/config"
	"github.com/startline/auth-server/internal/domain"
	"github.com/startline/auth-server/internal/events"
	"github.com/startline/auth-server/internal/observability"
	"github.com/startline/auth-server/internal/repository"
)

// LoginRequest is the inbound login shape. Empty header values are treated as absent.
type LoginRequest struct {
	Credentials           domain.Credentials
	RefreshToken          string
	RefreshTokenExpiresIn string
}

// AuthService coordinates signup and login flows.
type AuthService struct {
	tx            repository.Transactor
	codec         *auth.Codec
	hasher        auth.PasswordHasher
	lifetimes     auth.Lifetimes
	policy        auth.RotationPolicy
	signupEnabled bool
	events        events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           auth.Clock
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Transactor repository.Transactor
	Hasher     auth.PasswordHasher
	Events     events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      auth.Clock
}

// NewAuthService builds the service. The codec key is derived once here.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}

	return &AuthService{
		tx:     deps.Transactor,
		codec:  auth.NewCodec(cfg.Auth.JWTSecret, now),
		hasher: hasher,
		lifetimes: auth.Lifetimes{
			Access:  cfg.Auth.AccessTokenTTL(),
			Refresh: cfg.Auth.RefreshTokenTTL(),
		},
		policy:        auth.NewRotationPolicy(cfg.Auth.RefreshRotateBefore(), now),
		signupEnabled: cfg.Auth.SignupEnabled,
		events:        dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		now:           now,
	}
}

// Codec exposes the token codec for middleware usage.
func (s *AuthService) Codec() *auth.Codec {
	return s.codec
}

func (s *AuthService) issuer(store repository.Store) *auth.Issuer {
	return auth.NewIssuer(s.codec, s.lifetimes, store.Principals(), store.RefreshTokens(), s.now)
}

// Login verifies credentials and decides which tokens to mint:
//   - no refresh token presented: a full pair;
//   - a valid refresh token close to expiry: a full pair (rotation);
//   - a valid refresh token with life left: an access token only;
//   - anything else: domain.ErrLoginFailed.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.TokenPair, error) {
	var (
		pair   *domain.TokenPair
		branch string
	)

	err := s.tx.WithinSerializable(ctx, func(ctx context.Context, store repository.Store) error {
		var verifier auth.CredentialVerifier = auth.NewPasswordVerifier(store.Principals(), s.hasher)
		principal, err := verifier.Authenticate(ctx, req.Credentials)
		if err != nil {
			return err
		}

		issuer := s.issuer(store)
		refreshToken := strings.TrimSpace(req.RefreshToken)
		if refreshToken == "" {
			branch = events.BranchPair
			pair, err = issuer.IssuePair(ctx, principal)
			return err
		}

		claimedExpiry, parseErr := parseExpiryHeader(req.RefreshTokenExpiresIn)
		valid, err := issuer.ValidateRefreshToken(ctx, refreshToken, principal.Username)
		if err != nil {
			return err
		}
		if !valid || parseErr != nil {
			return domain.ErrLoginFailed
		}

		if s.policy.CheckExpireTime(claimedExpiry) {
			branch = events.BranchPair
			pair, err = issuer.IssuePair(ctx, principal)
			return err
		}
		branch = events.BranchAccessOnly
		pair, err = issuer.IssueAccessOnly(ctx, principal)
		return err
	})
	if err != nil {
		s.logger.Debug("login rejected", zap.String("username", req.Credentials.Username), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordIssuance(branch)
	s.logger.Info("tokens issued", zap.String("username", req.Credentials.Username), zap.String("branch", branch))
	s.publish(ctx, events.New(events.EventTokensIssued, req.Credentials.Username, events.TokensIssuedPayload{
		Branch:                branch,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}))
	return pair, nil
}

// parseExpiryHeader reads the claimed refresh expiry in epoch milliseconds. A
// missing header counts as zero, which the rotation policy treats as due.
func parseExpiryHeader(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Signup creates a principal and assigns the default authority in one serializable transaction.
func (s *AuthService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Principal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var principal *domain.Principal
	err = s.tx.WithinSerializable(ctx, func(ctx context.Context, store repository.Store) error {
		principal = &domain.Principal{
			Username:     req.Username,
			PasswordHash: hash,
			Nickname:     req.Nickname,
			Enabled:      s.signupEnabled,
		}
		if err := store.Principals().Create(ctx, principal); err != nil {
			return err
		}

		authority := &domain.Authority{Username: req.Username, Authority: domain.DefaultAuthority}
		if err := store.Authorities().Create(ctx, authority); err != nil {
			return fmt.Errorf("assign default authority: %w", err)
		}
		principal.Authorities = []domain.AuthorityName{authority.Authority}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("username", principal.Username))
	s.publish(ctx, events.New(events.EventUserSignedUp, principal.Username, events.UserSignedUpPayload{
		Authority: domain.DefaultAuthority,
		Enabled:   principal.Enabled,
	}))
	return principal, nil
}

func (s *AuthService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(evt.Type)), zap.Error(err))
	}
}
