// Package fault defines the error taxonomy shared by the services and the
// HTTP layer. Callers classify failures with errors.Is/errors.As against the
// sentinels below; the HTTP layer maps each class to a status code.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrAuthorization marks a permission failure (approver not in the
	// required set, non-owner editing a document).
	ErrAuthorization = errors.New("not authorized")

	// ErrPolicyViolation marks an operation that is well-formed and
	// authorized but forbidden by a business rule.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrNotFound marks an unknown document, item or party.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks a failure of the persistence collaborator.
	ErrStorage = errors.New("storage failure")

	// Token errors are surfaced distinctly so the external client sees an
	// accurate message.
	ErrTokenInvalid        = errors.New("approval token invalid")
	ErrTokenExpired        = errors.New("approval token expired")
	ErrTokenAlreadyDecided = errors.New("decision already recorded")
)

// Validation builds a field-scoped validation error.
func Validation(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

// Policy builds a policy violation with a human-readable reason.
func Policy(reason string) error {
	return fmt.Errorf("%w: %s", ErrPolicyViolation, reason)
}

// NotFound builds a not-found error for a named resource.
func NotFound(resource string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, resource, id)
}

// Storage wraps a persistence failure so it is never mistaken for a domain
// rejection.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
