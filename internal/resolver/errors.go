package resolver

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every error Load returns for an unresolvable reference.
var ErrNotFound = errors.New("resource not found")

// NotFoundError reports a reference that no source could provide.
// Err holds the underlying transport or status failure, if any.
type NotFoundError struct {
	Ref string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrNotFound, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrNotFound, e.Ref)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StatusError is a non-2xx response from a remote source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
