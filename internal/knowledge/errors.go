package knowledge

import "errors"

var (
	// ErrSearch indicates the store-side ranking call failed.
	ErrSearch = errors.New("knowledge search failed")

	// ErrNotFound indicates a reference to a missing item id.
	ErrNotFound = errors.New("knowledge item not found")

	// ErrInvalidItem indicates an item that cannot be stored
	// (missing content or embedding, unknown source or category tag).
	ErrInvalidItem = errors.New("invalid knowledge item")
)
