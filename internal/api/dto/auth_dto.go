package dto

import (
	"time"

	"github.com/startline/auth-server/internal/domain"
)

// Login request headers carrying a previously issued refresh token.
const (
	HeaderRefreshToken          = "RefreshToken"
	HeaderRefreshTokenExpiresIn = "refreshTokenExpiresIn"
)

// SignupRequest payload for new users.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the outbound token pair. Instants are epoch milliseconds.
type TokenResponse struct {
	GrantType             string `json:"grantType"`
	AccessToken           string `json:"accessToken,omitempty"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	AccessTokenExpiresIn  int64  `json:"accessTokenExpiresIn,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// NewTokenResponse renders only the tokens the pair carries.
func NewTokenResponse(pair *domain.TokenPair) TokenResponse {
	resp := TokenResponse{GrantType: pair.GrantType}
	if pair.HasAccessToken() {
		resp.AccessToken = pair.AccessToken
		resp.AccessTokenExpiresIn = pair.AccessTokenExpiresAt.UnixMilli()
	}
	if pair.HasRefreshToken() {
		resp.RefreshToken = pair.RefreshToken
		resp.RefreshTokenExpiresIn = pair.RefreshTokenExpiresAt.UnixMilli()
	}
	return resp
}

// PrincipalResponse describes a principal without its credentials.
type PrincipalResponse struct {
	Username    string    `json:"username"`
	Nickname    string    `json:"nickname,omitempty"`
	Enabled     bool      `json:"enabled"`
	Authorities []string  `json:"authorities"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// NewPrincipalResponse maps a domain principal.
func NewPrincipalResponse(p *domain.Principal) PrincipalResponse {
	authorities := make([]string, 0, len(p.Authorities))
	for _, a := range p.Authorities {
		authorities = append(authorities, string(a))
	}
	return PrincipalResponse{
		Username:    p.Username,
		Nickname:    p.Nickname,
		Enabled:     p.Enabled,
		Authorities: authorities,
		CreatedAt:   p.CreatedAt,
	}
}

// MeResponse describes the caller decoded from its access token.
type MeResponse struct {
	Username    string   `json:"username"`
	Nickname    string   `json:"nickname,omitempty"`
	Authorities []string `json:"authorities"`
	ExpiresAt   int64    `json:"expiresAt"`
}

// EnabledRequest toggles a principal's enabled flag.
type EnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// GrantAuthorityRequest grants an authority to a principal.
type GrantAuthorityRequest struct {
	Authority string `json:"authority"`
}
