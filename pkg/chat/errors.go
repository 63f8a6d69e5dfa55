package chat

import "errors"

var (
	// ErrAlloc reports that the allocator could not provide memory. The
	// buffer involved keeps its last valid state.
	ErrAlloc = errors.New("allocation failed")

	// ErrUnknownRole is returned for a Role outside the supported set.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownContentType is returned for a ContentType outside the supported set.
	ErrUnknownContentType = errors.New("unknown content type")

	// ErrDestroyed is returned when a destroyed buffer is used again.
	ErrDestroyed = errors.New("message buffer destroyed")
)
