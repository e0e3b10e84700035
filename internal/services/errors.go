package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAlreadyVerified    = errors.New("user is already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrIncorrectPassword  = errors.New("current password is incorrect")

	// ErrInvalidOrExpiredToken is returned by the password-reset confirm
	// flow for any token validation failure; the two cases are not
	// distinguished there.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// NotVerifiedError blocks login until the email is verified. It carries the
// account email so the client can route to the verification page.
type NotVerifiedError struct {
	Email string
}

func (e *NotVerifiedError) Error() string {
	return fmt.Sprintf("email %s not verified", e.Email)
}
