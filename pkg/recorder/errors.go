package recorder

import "errors"

var (
	// ErrClosed is returned by any operation on a recorder after Close,
	// and by the filled-queue take at end-of-stream.
	ErrClosed = errors.New("recorder: session closed")

	// ErrStopped is returned by Play after Stop; a session records once
	// and is not reusable.
	ErrStopped = errors.New("recorder: session stopped")
)
