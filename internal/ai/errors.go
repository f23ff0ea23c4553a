package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for oracle failures.
const (
	CodeTimeout    = "oracle_timeout"
	CodeNetwork    = "oracle_network"
	CodeBadAnswer  = "oracle_bad_answer"
	CodeValidation = "oracle_validation"
)

// Error is a typed oracle failure. Timeout and network errors are retryable
// at the caller's discretion; the oracle itself never retries.
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

// ValidationError reports a structurally invalid oracle response along with
// every individual failure, so the caller can log exactly what was missing.
type ValidationError struct {
	Failures []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", CodeValidation, strings.Join(e.Failures, "; "))
}

// IsTimeout reports whether err is an oracle timeout.
func IsTimeout(err error) bool {
	var e *Error

	return errors.As(err, &e) && e.Code == CodeTimeout
}
