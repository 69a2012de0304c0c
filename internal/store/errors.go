package store

import (
	"context"
	"errors"
)

// Error kinds surfaced by the store. Remote failures pass through unwrapped;
// cancellation is internal and never reaches callers or the reporter.
var (
	// ErrNotSetUp is returned when an operation requiring an active session
	// runs without one.
	ErrNotSetUp = errors.New("store is not set up")

	// ErrNotAuthenticated is returned by Setup when no token was supplied
	// and none is stored for the server.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoSelectedEndpoint is returned when a container-scoped operation
	// runs with no endpoint selected.
	ErrNoSelectedEndpoint = errors.New("no endpoint selected")

	// ErrUnknownEndpoint is returned by SelectEndpoint for an ID that is not
	// in the current endpoint collection.
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrSecretStore wraps token read/write/delete failures. Writes are
	// best-effort; required reads fail Setup.
	ErrSecretStore = errors.New("secret store failure")
)

// isCancellation reports whether err is a context cancellation. Deadline
// expiry is a real failure (the server did not answer in time) and is not
// absorbed.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
