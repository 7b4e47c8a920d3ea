// Package accessory models the bridged accessory surface: stable
// identities, characteristic slots with read/write handlers, a
// registry of live accessories, and the persistent context store that
// keeps identities stable across restarts.
//
// An accessory is the normalized projection of one vendor device (or
// one sub-device of a multi-outlet unit). Characteristics are the
// uniform read/write value slots the rest of the system works with;
// device family decides which slots an accessory carries.
package accessory
