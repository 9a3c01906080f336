package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/startline/auth-server/internal/domain"
)

const (
	authoritiesClaim = "auth"
	authoritySep     = ","
)

// Clock returns the current instant. Tests substitute a fixed clock.
type Clock func() time.Time

// TokenType distinguishes bearer credentials from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims describes the JWT payload shared by access and refresh tokens.
type Claims struct {
	Authorities string    `json:"auth"`
	Nickname    string    `json:"nickname,omitempty"`
	TokenType   TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenParams describes a token to sign. ID becomes the jti claim when set.
type TokenParams struct {
	Type        TokenType
	ID          string
	Subject     string
	Authorities []string
	Nickname    string
	ExpiresAt   time.Time
}

// AuthorityList splits the joined authorities claim.
func (c *Claims) AuthorityList() []string {
	if c.Authorities == "" {
		return nil
	}
	return strings.Split(c.Authorities, authoritySep)
}

// HasAuthority reports whether the claim set carries the authority.
func (c *Claims) HasAuthority(name domain.AuthorityName) bool {
	for _, a := range c.AuthorityList() {
		if a == string(name) {
			return true
		}
	}
	return false
}

// Codec encodes and decodes HS512-signed tokens with a key derived once from the configured secret.
type Codec struct {
	key []byte
	now Clock
}

// NewCodec derives the signing key from the secret's UTF-8 bytes.
func NewCodec(secret string, now Clock) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{key: []byte(secret), now: now}
}

// Encode signs a token for the subject carrying the joined authorities, an optional
// nickname claim and an absolute expiration.
func (c *Codec) Encode(p TokenParams) (string, error) {
	if p.Type != TokenTypeAccess && p.Type != TokenTypeRefresh {
		return "", fmt.Errorf("unknown token type %q", p.Type)
	}
	claims := &Claims{
		Authorities: strings.Join(p.Authorities, authoritySep),
		Nickname:    p.Nickname,
		TokenType:   p.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.ID,
			Subject:   p.Subject,
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns its claims. Failures are reported as
// domain.ErrTokenMalformed, domain.ErrTokenSignatureInvalid or domain.ErrTokenExpired.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}
	return claims, nil
}

// DecodeAs decodes the token and rejects it as malformed unless it carries the wanted type.
func (c *Codec) DecodeAs(tokenStr string, want TokenType) (*Claims, error) {
	claims, err := c.Decode(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", domain.ErrTokenMalformed, want, claims.TokenType)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}
