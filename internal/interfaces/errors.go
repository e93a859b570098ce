package interfaces

import "errors"

// Sentinel errors shared across the storage and service layers. Validation
// failures are surfaced to callers synchronously and are not system errors.
var (
	// ErrNotFound is returned when a store has no row for the given key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePayment is returned when a dividend payment already exists
	// for the same (portfolio, dividend event) pair.
	ErrDuplicatePayment = errors.New("dividend payment already recorded for this event")

	// ErrPortfolioExists is returned when a user already has an active
	// portfolio with the requested name.
	ErrPortfolioExists = errors.New("portfolio with this name already exists")
)
