package domain

import "errors"

// Sentinel errors for the domain layer. Fetch-layer failures are classified
// into exactly NotFound, PermissionDenied and MalformedData; anything a
// gateway returns outside that set is treated as MalformedData by callers.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrPermissionDenied  = errors.New("domain: permission denied")
	ErrMalformedData     = errors.New("domain: malformed data")
	ErrIncompleteCapture = errors.New("domain: incomplete capture")
	ErrFetchFailure      = errors.New("domain: fetch failure")
)
