package domain

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrLoginFailed           = errors.New("login failed")
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrValidationFailed      = errors.New("validation failed")
	ErrPrincipalNotFound     = errors.New("principal not found")
	ErrPrincipalDisabled     = errors.New("principal disabled")
)
