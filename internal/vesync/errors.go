package vesync

import "errors"

// Error taxonomy for vendor call failures.
//
// Vendor client implementations wrap their transport failures in one of
// these sentinels so the session manager and retry policy can classify
// them with errors.Is():
//
//	if errors.Is(err, vesync.ErrAuth) {
//	    // clamp backoff, force re-login
//	}
var (
	// ErrAuth is returned for authentication-class failures: wrong
	// credentials or an explicitly rejected session. Recoverable by
	// re-login, so the session backoff is clamped short for it.
	ErrAuth = errors.New("vesync: authentication failed")

	// ErrNotLoggedIn is returned when a call requires a session that
	// has expired server-side. Treated as authentication-class.
	ErrNotLoggedIn = errors.New("vesync: not logged in")

	// ErrTransient is returned for network-class failures: timeouts,
	// resets, rate limits. Retryable.
	ErrTransient = errors.New("vesync: transient failure")

	// ErrDeviceUnavailable is returned when the cloud reports a device
	// as not found or offline. Not retried within the current pass.
	ErrDeviceUnavailable = errors.New("vesync: device unavailable")

	// ErrSoftFailure is used to surface a (false, nil) vendor return as
	// an error value.
	ErrSoftFailure = errors.New("vesync: call rejected by cloud")

	// ErrUnsupported is returned when a device permanently rejects an
	// operation, e.g. firmware that refuses the command entirely.
	// Never retried; the binding faults.
	ErrUnsupported = errors.New("vesync: operation not supported by device")
)

// Class buckets an error for backoff and retry decisions.
type Class int

const (
	// ClassTransient covers network-class failures and anything
	// unrecognised. The conservative default: double the session
	// backoff and allow per-call retries.
	ClassTransient Class = iota

	// ClassAuth covers authentication failures and expired sessions.
	ClassAuth

	// ClassDeviceUnavailable covers per-device not-found/offline
	// reports. Surfaced as a warning, never retried within a pass.
	ClassDeviceUnavailable

	// ClassPermanent covers operations a device will never accept.
	// Never retried; the owning binding moves to its fault state.
	ClassPermanent
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassDeviceUnavailable:
		return "device_unavailable"
	case ClassPermanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Classify buckets err into a Class.
//
// Unrecognised errors classify as transient: network-shaped failures
// are the common case for an unreliable remote API, and treating an
// auth failure as transient only costs a longer backoff, while the
// reverse would hammer the login endpoint.
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrNotLoggedIn):
		return ClassAuth
	case errors.Is(err, ErrDeviceUnavailable):
		return ClassDeviceUnavailable
	case errors.Is(err, ErrUnsupported):
		return ClassPermanent
	default:
		return ClassTransient
	}
}
