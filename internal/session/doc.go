// Package session owns authentication against the vendor cloud.
//
// The manager keeps session state explicit: last successful login,
// last attempt, and the current backoff window. Callers ask for a
// usable session via EnsureLogin and get a plain bool back; login
// failures are a normal operating condition handled with exponential
// backoff, not errors to propagate.
package session
