package domainerrors

import (
	"errors"

	"portcullis/pkg/platform/sentinel"
)

// FromStore translates a store sentinel into a domain error. Services handle
// the sentinels they give meaning to (not found, conflict) before calling this.
func FromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return Wrap(err, CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return Wrap(err, CodeConflict, msg)
	case errors.Is(err, sentinel.ErrExpired):
		return Wrap(err, CodeExpired, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return Wrap(err, CodeUnavailable, msg)
	case errors.Is(err, sentinel.ErrInvalidState):
		return Wrap(err, CodeInvariantViolation, msg)
	}
	return Wrap(err, CodeDatabase, msg)
}
