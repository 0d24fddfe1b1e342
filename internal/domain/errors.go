package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")

	// ErrRemoteUnavailable covers transport, status and shape failures talking to the commerce API.
	ErrRemoteUnavailable = errors.New("remote commerce backend unavailable")
	// ErrVariantRequired means a cart mutation was attempted without a purchasable variant.
	ErrVariantRequired = errors.New("variant required")
	// ErrProductNotFound means a product lookup returned no node.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartStale means the persisted cart id no longer resolves remotely.
	ErrCartStale = errors.New("cart no longer exists")
	// ErrPersistenceCorrupt marks unreadable persisted data. Readers recover with defaults.
	ErrPersistenceCorrupt = errors.New("persisted data corrupt")
	// ErrSubmissionFailed means a design submission upload or insert failed.
	ErrSubmissionFailed = errors.New("submission failed")
)
