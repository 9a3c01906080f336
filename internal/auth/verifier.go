package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/startline/auth-server/internal/domain"
)

var _ CredentialVerifier = (*PasswordVerifier)(nil)

// PasswordVerifier checks a username/password pair against the principal store.
type PasswordVerifier struct {
	principals PrincipalLookup
	hasher     PasswordHasher
}

// NewPasswordVerifier builds a verifier over the given lookup.
func NewPasswordVerifier(principals PrincipalLookup, hasher PasswordHasher) *PasswordVerifier {
	return &PasswordVerifier{principals: principals, hasher: hasher}
}

// Authenticate returns domain.ErrInvalidCredentials for unknown, disabled or
// mismatching principals alike.
func (v *PasswordVerifier) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.VerifiedPrincipal, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	principal, err := v.principals.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if err := v.hasher.Compare(principal.PasswordHash, creds.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !principal.Enabled {
		return nil, domain.ErrInvalidCredentials
	}

	return &domain.VerifiedPrincipal{
		Username:    principal.Username,
		Authorities: append([]domain.AuthorityName(nil), principal.Authorities...),
	}, nil
}
