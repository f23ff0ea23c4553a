package extract

import (
	"errors"
	"fmt"
)

// Error codes for programmatic branching by callers.
const (
	CodeMalformedInput = "malformed_input"
	CodeKeyNotFound    = "key_not_found"
)

// Error is a typed extraction failure carrying a machine-readable code next
// to the human-readable message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// malformed builds a malformed-input error. Never retried automatically.
func malformed(msg string, err error) *Error {
	return &Error{Code: CodeMalformedInput, Message: msg, Err: err}
}

// keyNotFound builds the typed error for a missing 44-digit access key, kept
// distinct from generic malformed input so callers can prompt for manual key
// entry.
func keyNotFound(msg string) *Error {
	return &Error{Code: CodeKeyNotFound, Message: msg}
}

// IsMalformed reports whether err is a malformed-input extraction error.
func IsMalformed(err error) bool {
	var e *Error

	return errors.As(err, &e) && e.Code == CodeMalformedInput
}

// IsKeyNotFound reports whether err is a key-not-found extraction error.
func IsKeyNotFound(err error) bool {
	var e *Error

	return errors.As(err, &e) && e.Code == CodeKeyNotFound
}
