package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/startline/auth-server/internal/domain"
)

// Lifetimes holds the token TTLs. Refresh must outlive access.
type Lifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

// Issuer mints access/refresh tokens for verified principals and persists refresh tokens.
type Issuer struct {
	codec      *Codec
	lifetimes  Lifetimes
	principals PrincipalLookup
	tokens     RefreshTokenStore
	now        Clock
}

// NewIssuer builds an issuer. It is cheap and is typically built per transaction.
func NewIssuer(codec *Codec, lifetimes Lifetimes, principals PrincipalLookup, tokens RefreshTokenStore, now Clock) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{codec: codec, lifetimes: lifetimes, principals: principals, tokens: tokens, now: now}
}

// IssuePair mints an access and a refresh token and persists the refresh token.
func (i *Issuer) IssuePair(ctx context.Context, p *domain.VerifiedPrincipal) (*domain.TokenPair, error) {
	now := i.now()

	pair := &domain.TokenPair{GrantType: domain.GrantTypeBearer}
	if err := i.mintAccess(ctx, p, now, pair); err != nil {
		return nil, err
	}
	if err := i.mintRefresh(ctx, p, now, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// IssueAccessOnly mints an access token without touching the refresh token store.
func (i *Issuer) IssueAccessOnly(ctx context.Context, p *domain.VerifiedPrincipal) (*domain.TokenPair, error) {
	pair := &domain.TokenPair{GrantType: domain.GrantTypeBearer}
	if err := i.mintAccess(ctx, p, i.now(), pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// IssueRefreshOnly mints and persists a refresh token.
func (i *Issuer) IssueRefreshOnly(ctx context.Context, p *domain.VerifiedPrincipal) (*domain.TokenPair, error) {
	pair := &domain.TokenPair{GrantType: domain.GrantTypeBearer}
	if err := i.mintRefresh(ctx, p, i.now(), pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (i *Issuer) mintAccess(ctx context.Context, p *domain.VerifiedPrincipal, now time.Time, pair *domain.TokenPair) error {
	nickname, err := i.nickname(ctx, p.Username)
	if err != nil {
		return err
	}

	expiresAt := now.Add(i.lifetimes.Access)
	token, err := i.codec.Encode(TokenParams{
		Type:        TokenTypeAccess,
		Subject:     p.Username,
		Authorities: p.AuthorityStrings(),
		Nickname:    nickname,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode access token: %w", err)
	}
	pair.AccessToken = token
	pair.AccessTokenExpiresAt = expiresAt
	return nil
}

func (i *Issuer) mintRefresh(ctx context.Context, p *domain.VerifiedPrincipal, now time.Time, pair *domain.TokenPair) error {
	id := uuid.NewString()
	expiresAt := now.Add(i.lifetimes.Refresh)
	token, err := i.codec.Encode(TokenParams{
		Type:        TokenTypeRefresh,
		ID:          id,
		Subject:     p.Username,
		Authorities: p.AuthorityStrings(),
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode refresh token: %w", err)
	}

	record := &domain.RefreshToken{
		ID:        id,
		Token:     token,
		Username:  p.Username,
		ExpiresAt: expiresAt,
	}
	if err := i.tokens.Save(ctx, record); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	pair.RefreshToken = token
	pair.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (i *Issuer) nickname(ctx context.Context, username string) (string, error) {
	principal, err := i.principals.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return "", err
		}
		return "", fmt.Errorf("load display name: %w", err)
	}
	return principal.Nickname, nil
}

// ValidateRefreshToken reports whether token is a genuine, unexpired refresh
// token owned by owner and present in the store. Every failure collapses to false.
func (i *Issuer) ValidateRefreshToken(ctx context.Context, token, owner string) (bool, error) {
	claims, err := i.codec.DecodeAs(token, TokenTypeRefresh)
	if err != nil || claims.Subject != owner {
		return false, nil
	}

	record, err := i.tokens.FindValid(ctx, token, owner, i.now())
	if err != nil {
		return false, fmt.Errorf("find refresh token: %w", err)
	}
	return record != nil, nil
}
