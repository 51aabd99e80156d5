package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	// ErrLockHeld means another request currently holds the advisory lock
	// for one of the windows being booked.
	ErrLockHeld = errors.New("window lock already held")
)
