package infisical

import (
	"errors"
	"fmt"
)

// ErrAuth marks an authentication rejection. Login failures are fatal to
// the whole run; a 401 on a regular call triggers exactly one explicit
// re-login before surfacing this error.
var ErrAuth = errors.New("authentication rejected")

// ErrNotFound marks a 404 from the store. Idempotent delete paths treat
// this as success; everything else surfaces it.
var ErrNotFound = errors.New("not found")

// APIError is a non-success response from the store. One APIError fails
// one call; callers classify it and move on.
type APIError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
	}

	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.Status)
}

// IsNotFound reports whether err (or any error in its chain) is the
// store's not-found failure class.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthRejected reports whether err is an authentication failure.
func IsAuthRejected(err error) bool {
	return errors.Is(err, ErrAuth)
}
