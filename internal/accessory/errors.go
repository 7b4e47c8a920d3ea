package accessory

import "errors"

var (
	// ErrNotFound indicates the requested accessory is not registered.
	ErrNotFound = errors.New("accessory: not found")

	// ErrDuplicateID indicates an accessory with the same identity is
	// already registered.
	ErrDuplicateID = errors.New("accessory: duplicate id")

	// ErrNoHandler indicates a write was attempted on a characteristic
	// with no set handler installed.
	ErrNoHandler = errors.New("accessory: no set handler")

	// ErrContextNotFound indicates the context store has no row for the
	// requested identity.
	ErrContextNotFound = errors.New("accessory: context not found")
)
