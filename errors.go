package blobstore

import (
	"errors"
	"fmt"
)

// Error is an operational storage error: a backend failure during a read or
// write after the store was successfully opened. It always carries the
// original cause, and for per-item writer operations the offending id, so
// callers can attribute the failure and decide whether to retry.
type Error struct {
	// Msg describes the attempted operation.
	Msg string
	// ID is the logical id (or metadata key) the operation was acting on,
	// if the failure is attributable to one.
	ID string
	// Err is the underlying backend error.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// TagError reports misuse of a tag name: an unregistered tag passed to a
// writer operation, or a malformed tag supplied at store construction. It
// is a contract violation by the caller, never a transient storage
// condition, and is never wrapped in an Error.
type TagError struct {
	Tag    string
	Reason string
}

func (e *TagError) Error() string {
	return fmt.Sprintf("unsupported tag %q: %s", e.Tag, e.Reason)
}

// IsTagError reports whether err is a tag validation failure. Uses
// errors.As to handle wrapped errors.
func IsTagError(err error) bool {
	var te *TagError
	return errors.As(err, &te)
}
