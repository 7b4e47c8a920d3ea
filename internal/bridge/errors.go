package bridge

import "errors"

var (
	// ErrInvalidValue indicates a command value was out of range or
	// non-finite. Rejected before any network call, never retried.
	ErrInvalidValue = errors.New("bridge: invalid command value")

	// ErrNotReady indicates a command arrived before initialization
	// completed.
	ErrNotReady = errors.New("bridge: not ready")

	// ErrBindingFaulted indicates the binding is in the terminal fault
	// state and no longer syncs.
	ErrBindingFaulted = errors.New("bridge: binding faulted")
)
