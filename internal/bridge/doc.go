// Package bridge ties the vendor cloud to the accessory surface: it
// reconciles the account inventory against bound accessories, runs the
// periodic per-accessory state sync, and carries user write commands
// back to the devices.
//
// One Binding exists per bound accessory and owns all of that
// accessory's mutable sync state. Bindings are never shared across
// accessories, so the only locking is the per-binding mutex guarding
// concurrent write commands against the accessory's own sync step.
package bridge
