package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignupRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  SignupRequest
		ok   bool
	}{
		{"valid", SignupRequest{Username: "alice.b-c_1", Password: "password1", Nickname: "Alice"}, true},
		{"short username", SignupRequest{Username: "al", Password: "password1"}, false},
		{"long username", SignupRequest{Username: strings.Repeat("a", 51), Password: "password1"}, false},
		{"bad characters", SignupRequest{Username: "alice!", Password: "password1"}, false},
		{"short password", SignupRequest{Username: "alice", Password: "pass"}, false},
		{"password over bcrypt limit", SignupRequest{Username: "alice", Password: strings.Repeat("p", 73)}, false},
		{"long nickname", SignupRequest{Username: "alice", Password: "password1", Nickname: strings.Repeat("n", 51)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestAuthorityNameValid(t *testing.T) {
	require.True(t, AuthorityPre.Valid())
	require.True(t, AuthorityAdmin.Valid())
	require.False(t, AuthorityName("ROLE_ROOT").Valid())
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Now()
	token := RefreshToken{ExpiresAt: now}
	require.True(t, token.Expired(now))
	require.False(t, token.Expired(now.Add(-time.Nanosecond)))
}
