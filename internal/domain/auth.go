package domain

import "time"

// GrantTypeBearer is the grant type reported with every token pair.
const GrantTypeBearer = "bearer"

// TokenPair groups the tokens minted for a single request. Either token may
// be absent depending on which issuance branch ran.
type TokenPair struct {
	GrantType             string
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

// HasAccessToken reports whether an access token was minted.
func (p TokenPair) HasAccessToken() bool { return p.AccessToken != "" }

// HasRefreshToken reports whether a refresh token was minted.
func (p TokenPair) HasRefreshToken() bool { return p.RefreshToken != "" }

// RefreshToken is a persisted refresh token row.
type RefreshToken struct {
	ID        string
	Token     string
	Username  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is expired at the given instant.
func (r RefreshToken) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
