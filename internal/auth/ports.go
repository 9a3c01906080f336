package auth

import (
	"context"
	"time"

	"github.com/startline/auth-server/internal/domain"
)

// PrincipalLookup resolves principals by username.
type PrincipalLookup interface {
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
}

// RefreshTokenStore persists issued refresh tokens and finds unexpired ones.
type RefreshTokenStore interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	FindValid(ctx context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error)
}

// CredentialVerifier turns raw credentials into a verified principal.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.VerifiedPrincipal, error)
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) error
}
