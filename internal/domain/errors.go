package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the synchronizer boundary.
type ErrorKind int

const (
	// KindValidation is bad local input; no network call was made.
	KindValidation ErrorKind = iota + 1

	// KindNetwork is a failed or timed-out request; the action was rolled
	// back and may be retried.
	KindNetwork

	// KindAuth is an unauthenticated request (HTTP 401); the action was
	// rolled back and must not be retried before re-authenticating.
	KindAuth

	// KindNotFound is a missing post or user; shown as an empty state.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is a classified client error. Status carries the HTTP status code
// when the server produced the failure, zero otherwise.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Validationf builds a validation error from a format string.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err. Unclassified errors (transport
// failures, timeouts, cancelled contexts) count as network errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err refers to a missing post or user.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
