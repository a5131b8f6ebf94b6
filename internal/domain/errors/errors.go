// internal/domain/errors/errors.go
package errors

import "errors"

// Sentinel errors shared by the policy, identity and operation layers.
// The GraphQL layer maps them to error codes with errors.Is, so wrap them
// with %w rather than replacing them.
var (
	// ErrNotAuthenticated means the request carried no caller identity.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrForbidden means the caller is known but lacks role or ownership.
	ErrForbidden = errors.New("you are not allowed to perform this action")
	// ErrBadSecret means a privileged path got a missing or wrong shared secret.
	ErrBadSecret = errors.New("invalid secret")

	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("directory unavailable")
)
