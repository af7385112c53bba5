package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrLockTimeout means the advisory locks could not be acquired in time. It is
	// transient and never a seat conflict.
	ErrLockTimeout = errors.New("timed out waiting for reservation lock")

	// ErrCommitFailed means the checks passed but the insert did not persist.
	ErrCommitFailed = errors.New("reservation commit failed")

	ErrLockNotHeld = errors.New("reservation lock is not held by this owner")

	// ErrStoreUnavailable marks a store failure that is worth retrying, such as a
	// network error or an aborted transaction.
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)
