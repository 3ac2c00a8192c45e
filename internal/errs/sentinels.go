// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/service layers.
var (
	// ErrNotFound indicates the requested entity or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStore indicates a persistence read/write failure. Recoverable by the
	// caller; the core does not retry.
	ErrStore = errors.New("store failure")

	// ErrSessionRequired indicates a user-scoped operation was attempted
	// without an active session. Programmer error; propagate.
	ErrSessionRequired = errors.New("session required")

	// ErrSessionExpired indicates the persisted session is past its TTL.
	ErrSessionExpired = errors.New("session expired")

	// ErrPinMismatch indicates the supplied PIN does not match the stored one.
	ErrPinMismatch = errors.New("pin mismatch")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., duplicate record).
	ErrAlreadyExists = errors.New("already exists")

	// ErrFeatureMissing indicates the risk engine was given a feature vector
	// missing a required field.
	ErrFeatureMissing = errors.New("feature missing")

	// ErrFutureDate indicates an observation dated after the device clock.
	ErrFutureDate = errors.New("future date")

	// ErrTimeout indicates a network call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrTransport indicates a network-layer failure other than a timeout.
	ErrTransport = errors.New("transport failure")

	// ErrValidation indicates a payload failed schema validation.
	ErrValidation = errors.New("validation failed")
)
