package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes  = 72
	maxNicknameLength = 50
)

// SignupRequest carries the input of the enrollment flow.
type SignupRequest struct {
	Username string
	Password string
	Nickname string
}

// Validate checks the request shape and returns ErrValidationFailed with a reason.
func (r SignupRequest) Validate() error {
	if !usernamePattern.MatchString(r.Username) {
		return fmt.Errorf("%w: username must be 3-50 characters of letters, digits, '_', '.' or '-'", ErrValidationFailed)
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, minPasswordLength)
	}
	if len(r.Password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidationFailed, maxPasswordBytes)
	}
	if utf8.RuneCountInString(r.Nickname) > maxNicknameLength {
		return fmt.Errorf("%w: nickname must be at most %d characters", ErrValidationFailed, maxNicknameLength)
	}
	return nil
}

// Credentials is a username/password pair presented at login.
type Credentials struct {
	Username string
	Password string
}
