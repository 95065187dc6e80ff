package core

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoAccounts signals that a transaction was submitted without an account
// id and no account exists to fall back to.
var ErrNoAccounts = errors.New("no accounts found")

// ValidationError reports the first violated constraint of a submission.
// The message is field-specific and safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalSourceError wraps a failure of the background rate refresh. It is
// logged and absorbed, never returned to an HTTP caller.
type ExternalSourceError struct {
	Source string
	Err    error
}

func (e *ExternalSourceError) Error() string {
	return fmt.Sprintf("external rate source %s: %v", e.Source, e.Err)
}

func (e *ExternalSourceError) Unwrap() error {
	return e.Err
}
