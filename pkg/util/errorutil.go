package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/startline/auth-server/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewValidationError(message string) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type errorKind struct {
	err     error
	code    string
	message string
	status  int
	// detail exposes the wrapped error text, used where it carries a user-facing reason.
	detail bool
}

// errorKinds maps domain error kinds to their outward representation.
// Credential and token failures are client errors, as are login failures.
var errorKinds = []errorKind{
	{err: domain.ErrInvalidCredentials, code: "INVALID_CREDENTIALS", message: "invalid credentials", status: http.StatusBadRequest},
	{err: domain.ErrLoginFailed, code: "LOGIN_FAILED", message: "login failed", status: http.StatusBadRequest},
	{err: domain.ErrTokenMalformed, code: "TOKEN_MALFORMED", message: "token malformed", status: http.StatusBadRequest},
	{err: domain.ErrTokenSignatureInvalid, code: "TOKEN_SIGNATURE_INVALID", message: "token signature invalid", status: http.StatusBadRequest},
	{err: domain.ErrTokenExpired, code: "TOKEN_EXPIRED", message: "token expired", status: http.StatusBadRequest},
	{err: domain.ErrValidationFailed, code: "VALIDATION_FAILED", message: "validation failed", status: http.StatusBadRequest, detail: true},
	{err: domain.ErrDuplicateUsername, code: "DUPLICATE_USERNAME", message: "username already exists", status: http.StatusConflict},
	{err: domain.ErrPrincipalNotFound, code: "NOT_FOUND", message: "user not found", status: http.StatusNotFound},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			message := kind.message
			if kind.detail {
				message = err.Error()
			}
			return &DomainError{Code: kind.code, Message: message, HTTPStatus: kind.status, Err: err}
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// StatusFor returns the HTTP status an error is reported with.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return ToDomainError(err).HTTPStatus
}
