package cache

import "errors"

// ErrInvalidArgument is returned by Put for an empty key or empty data.
var ErrInvalidArgument = errors.New("cache: invalid argument")

// ErrClosed is returned by Put once Close has been called.
var ErrClosed = errors.New("cache: closed")

// ErrAllocationFailed is never raised by this implementation: Go's
// allocator failure surfaces as an OOM panic, not a recoverable error.
// The sentinel is kept for interface parity with the reference cache's
// Put contract, which documents an allocation-failure error case.
var ErrAllocationFailed = errors.New("cache: allocation failed")
