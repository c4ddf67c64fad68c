package domain

import "errors"

// Domain errors represent engine-level failure kinds.
// Adapters wrap transport and API failures so callers can match them with errors.Is.
var (
	// ErrTransport indicates a network or HTTP-level failure.
	// Recoverable: the current page or target is skipped and the run continues.
	ErrTransport = errors.New("transport failure")

	// ErrNotFound indicates a requested entity does not exist.
	// A probe document that is not found after deletion counts as deleted.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the session lacks the right to perform an operation.
	// Surfaces as NotWritable, never as a fatal error.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPartialUpdate indicates one or more metadata fields were rejected.
	// The uploaded file remains on the target.
	ErrPartialUpdate = errors.New("partial metadata update")

	// ErrConfiguration indicates missing or unusable local configuration
	// (template directory, wordlist category, input file).
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownTemplate indicates a template whose extension maps to no wordlist category.
	ErrUnknownTemplate = errors.New("unrecognised template type")

	// ErrRateLimited indicates the platform throttled the request (HTTP 429/503).
	ErrRateLimited = errors.New("rate limited")
)
