package shared

import "errors"

var (
	// ErrNotFound indicates the requested account does not exist. It is
	// deliberately distinct from ErrPermissionDenied: callers must be able
	// to tell a missing record from a refused one.
	ErrNotFound = errors.New("account not found")
	// ErrPermissionDenied indicates the role hierarchy or the self-update
	// rule refused the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateIdentity indicates the identity provider already holds a
	// fully set-up identity for the submitted email.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrSystemAdminCapReached indicates the configured maximum number of
	// system administrator accounts is already provisioned.
	ErrSystemAdminCapReached = errors.New("system administrator limit reached")
)
