package domain

import "errors"

// Sentinel errors shared by the store and handlers. Handlers map these to
// HTTP statuses; store methods wrap them with context via fmt.Errorf("%w").
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user is authenticated but is not
	// allowed to perform the operation (not the owner, or no accepted
	// invitation).
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate means the write would violate a natural uniqueness
	// rule (composite transaction key, pending invitation per email).
	ErrDuplicate = errors.New("duplicate")

	// ErrValidation means the request payload failed validation.
	ErrValidation = errors.New("validation failed")
)
