package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Validation errors (rejected before any remote call)
	ErrInvalidCategory = errors.New("invalid quest category")
	ErrInvalidActivity = errors.New("invalid activity type")
	ErrInvalidStat     = errors.New("invalid social stat")
	ErrInvalidUser     = errors.New("invalid user id")

	// Backend errors
	ErrCapabilityAbsent = errors.New("backend capability not available")

	// Concurrency
	ErrInFlight = errors.New("operation already in progress for this user")

	// Cache
	ErrCacheMiss = errors.New("cache miss")
)

// ─── Error Kinds ────────────────────────────────────────────────────────────

// ErrorKind is the closed classification of failures seen by the rules engine.
// Raw transport errors are mapped once, at the backend adapter boundary.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNotSupported ErrorKind = "not_supported" // function/table not deployed
	KindTransient    ErrorKind = "transient"     // anything retryable or unknown
	KindValidation   ErrorKind = "validation"    // bad input
)

// BackendError carries the classified kind of a remote failure.
type BackendError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError builds a classified backend error.
func NewBackendError(op string, kind ErrorKind, err error) *BackendError {
	return &BackendError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the ErrorKind of err.
// Unclassified non-nil errors are treated as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	switch {
	case errors.Is(err, ErrCapabilityAbsent):
		return KindNotSupported
	case errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidActivity),
		errors.Is(err, ErrInvalidStat),
		errors.Is(err, ErrInvalidUser):
		return KindValidation
	}
	return KindTransient
}

// IsNotSupported reports whether err means "feature not yet deployed".
func IsNotSupported(err error) bool {
	return KindOf(err) == KindNotSupported
}
