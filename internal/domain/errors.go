package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the marketplace backend is unreachable
	ErrServerOffline = errors.New("marketplace server is unreachable")

	// ErrAuthFailed indicates the session token is invalid or expired
	ErrAuthFailed = errors.New("session token is invalid")

	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrStateChanged indicates a local action was rejected because the
	// cached purchase-request state is no longer current. Nothing was
	// sent to the server; the caller should refetch and re-render.
	ErrStateChanged = errors.New("purchase request state changed")
)

// FailureKind classifies a remote-call failure for rollback and retry policy.
type FailureKind int

const (
	// FailureNetwork covers transport errors and 5xx responses. Retryable.
	FailureNetwork FailureKind = iota

	// FailureConflict means server state diverged from the cached copy
	// (e.g. the purchase request was already resolved). Not retryable;
	// the cached record must be refetched.
	FailureConflict

	// FailureValidation covers 4xx responses the client-side gating
	// should have prevented.
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureConflict:
		return "conflict"
	case FailureValidation:
		return "validation"
	default:
		return "network"
	}
}

// Failure is the typed outcome of a failed remote call. The mutation
// coordinator treats every kind the same way (rollback); the kind and
// code survive for user messaging.
type Failure struct {
	Kind   FailureKind
	Status int    // HTTP status, 0 for transport errors
	Code   string // Server application code, if any
	Err    error  // Underlying cause
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s failure (status %d): %v", f.Kind, f.Status, f.Err)
	}
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether the user may simply retry the action.
func (f *Failure) Retryable() bool { return f.Kind == FailureNetwork }

// NetworkFailure wraps a transport-level error.
func NetworkFailure(err error) *Failure {
	return &Failure{Kind: FailureNetwork, Err: err}
}

// StatusFailure classifies an HTTP error status into a Failure.
func StatusFailure(status int, code string, err error) *Failure {
	kind := FailureValidation
	switch {
	case status == 409:
		kind = FailureConflict
	case status >= 500:
		kind = FailureNetwork
	}
	return &Failure{Kind: kind, Status: status, Code: code, Err: err}
}

// AsFailure extracts a *Failure from err, wrapping unknown errors as
// network failures so callers always get a typed outcome.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NetworkFailure(err)
}
