package auth

import "errors"

var (
	ErrRequired     = errors.New("this field is required")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 8 characters long and contain an uppercase letter, a digit and one of @$!%*?&")
	ErrMismatch     = errors.New("passwords do not match")
	ErrEmailTaken   = errors.New("an account with this email already exists")
	ErrUnknownEmail = errors.New("no account is registered with this email")

	// ErrInvalidCredentials never says which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired reset link")
)

// ValidationError ties a validation failure to the form field that caused it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
