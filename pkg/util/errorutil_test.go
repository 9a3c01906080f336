package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/startline/auth-server/internal/domain"
)

func TestToDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS", http.StatusBadRequest},
		{domain.ErrLoginFailed, "LOGIN_FAILED", http.StatusBadRequest},
		{fmt.Errorf("decode: %w", domain.ErrTokenExpired), "TOKEN_EXPIRED", http.StatusBadRequest},
		{domain.ErrTokenMalformed, "TOKEN_MALFORMED", http.StatusBadRequest},
		{domain.ErrTokenSignatureInvalid, "TOKEN_SIGNATURE_INVALID", http.StatusBadRequest},
		{domain.ErrDuplicateUsername, "DUPLICATE_USERNAME", http.StatusConflict},
		{domain.ErrPrincipalNotFound, "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("missing"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{errors.New("pq: connection refused"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.Equal(t, tt.code, de.Code)
			require.Equal(t, tt.status, de.HTTPStatus)
			require.Equal(t, tt.status, StatusFor(tt.err))
		})
	}
}

func TestToDomainErrorHidesInternalDetail(t *testing.T) {
	de := ToDomainError(errors.New("dial tcp 10.0.0.3:5432: refused"))
	require.Equal(t, "internal server error", de.Message)
	require.NotContains(t, de.Message, "10.0.0.3")
}

func TestValidationMessageCarriesReason(t *testing.T) {
	err := fmt.Errorf("%w: password too short", domain.ErrValidationFailed)
	de := ToDomainError(err)
	require.Equal(t, "VALIDATION_FAILED", de.Code)
	require.Contains(t, de.Message, "password too short")
}

func TestToDomainErrorNil(t *testing.T) {
	require.Nil(t, ToDomainError(nil))
	require.Equal(t, http.StatusOK, StatusFor(nil))
}
