package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/startline/auth-server/internal/domain"
)

const testSecret = "test-secret-32-bytes-minimum"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCodecRoundTrip(t *testing.T) {
	clock := &fakeClock{now: t0}
	codec := NewCodec(testSecret, clock.Now)

	token, err := codec.Encode(TokenParams{
		Type:        TokenTypeAccess,
		Subject:     "alice",
		Authorities: []string{"ROLE_USER", "ROLE_ADMIN"},
		Nickname:    "Alice",
		ExpiresAt:   t0.Add(40 * time.Minute),
	})
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "ROLE_USER,ROLE_ADMIN", claims.Authorities)
	require.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.AuthorityList())
	require.Equal(t, "Alice", claims.Nickname)
	require.True(t, claims.ExpiresAt.Time.Equal(t0.Add(40*time.Minute)))
	require.True(t, claims.HasAuthority(domain.AuthorityAdmin))
	require.False(t, claims.HasAuthority(domain.AuthorityPre))
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.Empty(t, claims.ID)
}

func TestCodecAccessTokenExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: t0}
	codec := NewCodec(testSecret, clock.Now)

	token, err := codec.Encode(accessParams("alice", t0.Add(40*time.Minute)))
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, "USER", claims.Authorities)

	clock.Advance(41 * time.Minute)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func accessParams(subject string, expiresAt time.Time) TokenParams {
	return TokenParams{Type: TokenTypeAccess, Subject: subject, Authorities: []string{"USER"}, ExpiresAt: expiresAt}
}

func TestCodecIsDeterministic(t *testing.T) {
	codec := NewCodec(testSecret, (&fakeClock{now: t0}).Now)

	a, err := codec.Encode(accessParams("alice", t0.Add(time.Hour)))
	require.NoError(t, err)
	b, err := codec.Encode(accessParams("alice", t0.Add(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCodecRejectsBadTokens(t *testing.T) {
	clock := &fakeClock{now: t0}
	codec := NewCodec(testSecret, clock.Now)

	foreign, err := NewCodec("another-secret-entirely", clock.Now).Encode(accessParams("alice", t0.Add(time.Hour)))
	require.NoError(t, err)

	hs256 := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Authorities:      "USER",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))},
	})
	wrongAlg, err := hs256.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	})
	unbounded, err := noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", domain.ErrTokenMalformed},
		{"empty", "", domain.ErrTokenMalformed},
		{"foreign signature", foreign, domain.ErrTokenSignatureInvalid},
		{"wrong algorithm", wrongAlg, domain.ErrTokenSignatureInvalid},
		{"missing expiry", unbounded, domain.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCodecEncodeRejectsUnknownType(t *testing.T) {
	codec := NewCodec(testSecret, (&fakeClock{now: t0}).Now)

	_, err := codec.Encode(TokenParams{Subject: "alice", ExpiresAt: t0.Add(time.Hour)})
	require.Error(t, err)
}

func TestCodecDecodeAsChecksTokenType(t *testing.T) {
	codec := NewCodec(testSecret, (&fakeClock{now: t0}).Now)

	access, err := codec.Encode(accessParams("alice", t0.Add(time.Hour)))
	require.NoError(t, err)
	refresh, err := codec.Encode(TokenParams{
		Type:      TokenTypeRefresh,
		ID:        "8f14e45f-ceea-467f-a0e6-1b8f4e0c2f1a",
		Subject:   "alice",
		ExpiresAt: t0.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	untyped, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  TokenType
		err   error
	}{
		{"access as access", access, TokenTypeAccess, nil},
		{"refresh as refresh", refresh, TokenTypeRefresh, nil},
		{"refresh as access", refresh, TokenTypeAccess, domain.ErrTokenMalformed},
		{"access as refresh", access, TokenTypeRefresh, domain.ErrTokenMalformed},
		{"untyped as access", untyped, TokenTypeAccess, domain.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.DecodeAs(tt.token, tt.want)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, claims.TokenType)
		})
	}
}

func TestClaimsAuthorityListEmpty(t *testing.T) {
	require.Nil(t, (&Claims{}).AuthorityList())
}
