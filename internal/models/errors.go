package models

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an id unknown to the gateway or to the local store.
// Callers react differently to it than to generic failures (404 vs 500), so
// it must survive wrapping; match with errors.Is.
var ErrNotFound = errors.New("not found")

// ValidationError carries per-field messages for a rejected form submission.
// A single pass collects every failing field, never just the first one.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// GatewayError is a failure reported by the payment provider. Detail carries
// the provider's own message and must not be swallowed on the way up.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Detail)
}

// Is lets a 404-carrying GatewayError satisfy errors.Is(err, ErrNotFound).
func (e *GatewayError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// StorageError is a local persistence failure. Fatal for the current request,
// logged, never retried automatically.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
