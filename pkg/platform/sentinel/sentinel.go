// Package sentinel holds the infrastructure facts stores report.
//
// Stores return these (usually wrapped with fmt.Errorf and %w); services decide
// what they mean to a caller and translate them into pkg/domain-errors codes.
package sentinel

import "errors"

var (
	// ErrNotFound: the row or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrExpired: the session or verification token is past its expiry.
	ErrExpired = errors.New("expired")
	// ErrInvalidState: the entity cannot make the requested transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: the backing store cannot serve the call right now
	// (pool exhausted, connection refused, deadline exceeded).
	ErrUnavailable = errors.New("unavailable")
)
