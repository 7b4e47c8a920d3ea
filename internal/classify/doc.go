// Package classify maps vendor model identifiers to device families and
// capability descriptors.
//
// The vendor fleet is wildly inconsistent: motor speed comes in 2, 3, 4
// or 9 discrete levels depending on model, filter life arrives as a
// bare number or a {percent} object, and only some purifiers report air
// quality. Rather than re-testing type strings at every call site, the
// classifier computes one immutable Descriptor per device and everything
// downstream consumes that.
//
// Matching is case-insensitive and ordered: family naming prefixes are
// checked before model-list membership because some identifiers satisfy
// more than one rule (e.g. "ESWL01" would match both the outlet "ESW"
// models and the wall-switch prefix). First match wins. Unknown type
// strings fall back to a one-level outlet and are logged once per type.
package classify
